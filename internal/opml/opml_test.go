package opml

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryan-buckman/donorhub/internal/model"
)

func TestParseFlattensGroups(t *testing.T) {
	doc := `<?xml version="1.0"?>
<opml version="2.0">
  <head><title>Organizers</title></head>
  <body>
    <outline text="Red Cross" type="rss" xmlUrl="https://redcross.example.org/feed.xml"/>
    <outline text="Hospitals">
      <outline text="City Hospital" title="City Hospital Drives" type="json" xmlUrl="https://cityhospital.example.org/camps.json"/>
      <outline text="Duplicate" type="rss" xmlUrl="https://redcross.example.org/feed.xml"/>
    </outline>
    <outline text="Empty group"/>
  </body>
</opml>`

	subs, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []Subscription{
		{Title: "Red Cross", URL: "https://redcross.example.org/feed.xml", Kind: model.SourceFeed},
		{Title: "City Hospital Drives", URL: "https://cityhospital.example.org/camps.json", Kind: model.SourceJSON},
	}, subs)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse(strings.NewReader("<opml><body>"))
	assert.Error(t, err)
}

func TestExportThenParse(t *testing.T) {
	sources := []model.Source{
		{Title: "City Hospital", URL: "https://cityhospital.example.org/camps.json", Kind: model.SourceJSON},
		{Title: "Red Cross", URL: "https://redcross.example.org/feed.xml", Kind: model.SourceFeed},
	}
	out, err := Export("donorhub sources", sources)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("<?xml")))
	assert.Contains(t, string(out), `type="json"`)

	subs, err := Parse(bytes.NewReader(out))
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, model.SourceJSON, subs[0].Kind)
	assert.Equal(t, model.SourceFeed, subs[1].Kind)
}
