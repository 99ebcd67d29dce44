package dmg

import (
	"bytes"
	"strconv"

	"howett.net/plist"
)

// PartitionEntry is one decoded blkx array element: a partition's
// identity plus its (already base64-decoded) mish block bytes.
type PartitionEntry struct {
	Attributes string
	CFName     string
	Data       []byte
	ID         int
	Name       string
}

// envelopeDoc, resourceForkDoc and partitionDoc are the struct-tagged
// shapes Encode writes. howett.net/plist's XML encoder writes dict
// fields in struct-declaration order, which is what gives us §4.7's
// canonical five-pair partition ordering "for free" — field order here
// is not cosmetic.
type envelopeDoc struct {
	ResourceFork resourceForkDoc `plist:"resource-fork"`
}

type resourceForkDoc struct {
	Blkx []partitionDoc `plist:"blkx"`
	Plst []interface{}  `plist:"plst"`
}

type partitionDoc struct {
	Attributes string `plist:"Attributes"`
	CFName     string `plist:"CFName"`
	Data       []byte `plist:"Data"`
	ID         string `plist:"ID"`
	Name       string `plist:"Name"`
}

// EncodePlist builds the property-list XML document wrapping entries,
// per §4.7: one outer dict, "resource-fork" -> dict with "blkx" -> array
// of partition dicts and "plst" -> empty array.
func EncodePlist(entries []PartitionEntry) ([]byte, error) {
	doc := envelopeDoc{
		ResourceFork: resourceForkDoc{
			Blkx: make([]partitionDoc, 0, len(entries)),
			Plst: []interface{}{},
		},
	}
	for _, e := range entries {
		doc.ResourceFork.Blkx = append(doc.ResourceFork.Blkx, partitionDoc{
			Attributes: e.Attributes,
			CFName:     e.CFName,
			Data:       e.Data,
			ID:         strconv.Itoa(e.ID),
			Name:       e.Name,
		})
	}

	var buf bytes.Buffer
	enc := plist.NewEncoder(&buf)
	enc.Indent("\t")
	if err := enc.Encode(doc); err != nil {
		return nil, &XMLMalformedError{Reason: "encode", Err: err}
	}
	return wrapDoctype(buf.Bytes()), nil
}

// DecodePlist parses data as a property-list document and extracts the
// blkx partition array. Lookups are by key name against an associative
// map the plist decoder itself builds, which is the robust alternative
// §9 recommends over trusting "key at index i, value at index i+1"
// flat-array pairing.
func DecodePlist(data []byte) ([]PartitionEntry, error) {
	var root map[string]interface{}
	dec := plist.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&root); err != nil {
		return nil, &XMLMalformedError{Reason: "parse", Err: err}
	}

	rf, ok := dictValue(root, "resource-fork")
	if !ok {
		return nil, &MissingKeyError{Name: "resource-fork"}
	}
	blkxRaw, ok := rf["blkx"]
	if !ok {
		return nil, &MissingKeyError{Name: "blkx"}
	}
	blkx, ok := blkxRaw.([]interface{})
	if !ok {
		return nil, &XMLMalformedError{Reason: "blkx value is not an array"}
	}

	entries := make([]PartitionEntry, 0, len(blkx))
	for _, item := range blkx {
		dict, ok := item.(map[string]interface{})
		if !ok {
			return nil, &XMLMalformedError{Reason: "blkx element is not a dict"}
		}

		attrs, ok := stringValue(dict, "Attributes")
		if !ok {
			return nil, &MissingKeyError{Name: "Attributes"}
		}
		cfName, ok := stringValue(dict, "CFName")
		if !ok {
			return nil, &MissingKeyError{Name: "CFName"}
		}
		blob, ok := dataValue(dict, "Data")
		if !ok {
			return nil, &MissingKeyError{Name: "Data"}
		}
		idText, ok := stringValue(dict, "ID")
		if !ok {
			return nil, &MissingKeyError{Name: "ID"}
		}
		name, ok := stringValue(dict, "Name")
		if !ok {
			return nil, &MissingKeyError{Name: "Name"}
		}

		id, err := strconv.ParseInt(idText, 10, 32)
		if err != nil {
			return nil, &ParseIntError{Value: idText, Err: err}
		}

		entries = append(entries, PartitionEntry{
			Attributes: attrs,
			CFName:     cfName,
			Data:       blob,
			ID:         int(id),
			Name:       name,
		})
	}

	return entries, nil
}

func dictValue(d map[string]interface{}, key string) (map[string]interface{}, bool) {
	v, ok := d[key]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]interface{})
	return m, ok
}

func stringValue(d map[string]interface{}, key string) (string, bool) {
	v, ok := d[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func dataValue(d map[string]interface{}, key string) ([]byte, bool) {
	v, ok := d[key]
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

// plistDoctypeLine is Apple's PLIST 1.0 DOCTYPE declaration, which
// howett.net/plist's encoder does not emit on its own.
const plistDoctypeLine = `<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">` + "\n"

// wrapDoctype inserts plistDoctypeLine after the XML declaration the
// encoder already wrote, matching §4.7's DOCTYPE requirement without
// re-implementing XML serialization.
func wrapDoctype(encoded []byte) []byte {
	nl := bytes.IndexByte(encoded, '\n')
	if nl < 0 {
		return append([]byte(plistDoctypeLine), encoded...)
	}
	var out bytes.Buffer
	out.Write(encoded[:nl+1])
	out.WriteString(plistDoctypeLine)
	out.Write(encoded[nl+1:])
	return out.Bytes()
}
