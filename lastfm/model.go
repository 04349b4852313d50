package lastfm

import "encoding/xml"

type LastFM struct {
	XMLName xml.Name `xml:"lfm"`
	Status  string   `xml:"status,attr"`
	Artist  Artist   `xml:"artist"`
	Error   Error    `xml:"error"`
}

type Error struct {
	Code  int    `xml:"code,attr"`
	Value string `xml:",chardata"`
}

type Artist struct {
	XMLName xml.Name `xml:"artist"`
	Name    string   `xml:"name"`
	MBID    string   `xml:"mbid"`
	URL     string   `xml:"url"`
	Image   []Image  `xml:"image"`
	Stats   struct {
		Listeners string `xml:"listeners"`
		Playcount string `xml:"playcount"`
	} `xml:"stats"`
	Tags struct {
		Tag []Tag `xml:"tag"`
	} `xml:"tags"`
	Bio Bio `xml:"bio"`
}

type Image struct {
	Size string `xml:"size,attr"`
	Text string `xml:",chardata"`
}

type Tag struct {
	Name string `xml:"name"`
	URL  string `xml:"url"`
}

type Bio struct {
	Published string `xml:"published"`
	Summary   string `xml:"summary"`
	Content   string `xml:"content"`
}
