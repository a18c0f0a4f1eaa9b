package remotestore

import (
	"encoding/xml"
	"strings"
)

// propfindFiles requests the properties needed to enumerate files and
// their Nextcloud file ids under a remote prefix.
const propfindFiles = `<?xml version="1.0" encoding="UTF-8"?>
<d:propfind xmlns:d="DAV:" xmlns:oc="http://owncloud.org/ns">
  <d:prop>
    <d:resourcetype/>
    <oc:id/>
    <oc:fileid/>
  </d:prop>
</d:propfind>`

// propfindSystemTags requests the properties needed to build the
// TagIndex from the server's full system tag list.
const propfindSystemTags = `<?xml version="1.0" encoding="UTF-8"?>
<d:propfind xmlns:d="DAV:" xmlns:oc="http://owncloud.org/ns">
  <d:prop>
    <oc:display-name/>
    <oc:user-visible/>
    <oc:user-assignable/>
  </d:prop>
</d:propfind>`

// propfindFileTags requests the tag names attached to a single file via
// the systemtags-relations endpoint.
const propfindFileTags = `<?xml version="1.0" encoding="UTF-8"?>
<d:propfind xmlns:d="DAV:" xmlns:oc="http://owncloud.org/ns">
  <d:prop>
    <oc:display-name/>
  </d:prop>
</d:propfind>`

type multistatus struct {
	XMLName   xml.Name      `xml:"DAV: multistatus"`
	Responses []davResponse `xml:"DAV: response"`
}

type davResponse struct {
	Href      string        `xml:"DAV: href"`
	Propstats []davPropstat `xml:"DAV: propstat"`
}

type davPropstat struct {
	Prop   davProp `xml:"DAV: prop"`
	Status string  `xml:"DAV: status"`
}

type davProp struct {
	ResourceType struct {
		Collection *struct{} `xml:"DAV: collection"`
	} `xml:"DAV: resourcetype"`
	FileID         string `xml:"http://owncloud.org/ns fileid"`
	OCID           string `xml:"http://owncloud.org/ns id"`
	DisplayName    string `xml:"http://owncloud.org/ns display-name"`
	UserVisible    string `xml:"http://owncloud.org/ns user-visible"`
	UserAssignable string `xml:"http://owncloud.org/ns user-assignable"`
}

// firstSuccess returns the prop from the first propstat reporting a 2xx
// status, which is the only propstat callers should trust: Nextcloud
// returns one propstat per distinct status when a property is missing.
func (r davResponse) firstSuccess() (davProp, bool) {
	for _, ps := range r.Propstats {
		// A status line reads "HTTP/1.1 200 OK"; the code is the second field.
		fields := strings.Fields(ps.Status)
		if len(fields) >= 2 && strings.HasPrefix(fields[1], "2") {
			return ps.Prop, true
		}
	}
	return davProp{}, false
}

func (p davProp) isCollection() bool {
	return p.ResourceType.Collection != nil
}

func parseMultistatus(body []byte) (*multistatus, error) {
	var ms multistatus
	if err := xml.Unmarshal(body, &ms); err != nil {
		return nil, err
	}
	return &ms, nil
}
