package resolver

import (
	"go.senan.xyz/taglib"
)

// Probe fills in the duration and bitrate of c from the file's audio properties.
// Files taglib cannot read are left unchanged.
func Probe(c *Candidate) {
	props, err := taglib.ReadProperties(c.Path)
	if err != nil {
		return
	}
	if props.Length > 0 {
		c.Duration = props.Length.Seconds()
	}
	if props.Bitrate > 0 {
		c.Bitrate = int64(props.Bitrate)
	}
}
