package remotestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMultistatusDecodesResponses(t *testing.T) {
	const body = `<?xml version="1.0"?>
<d:multistatus xmlns:d="DAV:" xmlns:oc="http://owncloud.org/ns">
  <d:response>
    <d:href>/remote.php/dav/files/alice/notes.txt</d:href>
    <d:propstat>
      <d:prop><oc:fileid>9</oc:fileid><oc:display-name>reviewed</oc:display-name></d:prop>
      <d:status>HTTP/1.1 200 OK</d:status>
    </d:propstat>
  </d:response>
</d:multistatus>`

	ms, err := parseMultistatus([]byte(body))
	require.NoError(t, err)
	require.Len(t, ms.Responses, 1)

	resp := ms.Responses[0]
	assert.Equal(t, "/remote.php/dav/files/alice/notes.txt", resp.Href)

	prop, ok := resp.firstSuccess()
	require.True(t, ok)
	assert.Equal(t, "9", prop.FileID)
	assert.Equal(t, "reviewed", prop.DisplayName)
	assert.False(t, prop.isCollection())
}

func TestParseMultistatusRejectsMalformedXML(t *testing.T) {
	_, err := parseMultistatus([]byte(`<d:multistatus>`))
	assert.Error(t, err)
}

func TestDavResponseFirstSuccessSkipsNonSuccessStatus(t *testing.T) {
	resp := davResponse{
		Propstats: []davPropstat{
			{Prop: davProp{DisplayName: "missing"}, Status: "HTTP/1.1 404 Not Found"},
			{Prop: davProp{DisplayName: "found"}, Status: "HTTP/1.1 200 OK"},
		},
	}

	prop, ok := resp.firstSuccess()
	require.True(t, ok)
	assert.Equal(t, "found", prop.DisplayName)
}

func TestDavResponseFirstSuccessReturnsFalseWhenAllFail(t *testing.T) {
	resp := davResponse{
		Propstats: []davPropstat{
			{Prop: davProp{DisplayName: "missing"}, Status: "HTTP/1.1 404 Not Found"},
		},
	}

	_, ok := resp.firstSuccess()
	assert.False(t, ok)
}

func TestDavPropIsCollectionDetectsResourceType(t *testing.T) {
	var collection davProp
	collection.ResourceType.Collection = &struct{}{}
	assert.True(t, collection.isCollection())

	var file davProp
	assert.False(t, file.isCollection())
}
