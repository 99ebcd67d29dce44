package dmg

import "testing"

func TestPlistRoundTrip(t *testing.T) {
	m := sampleMish()
	entries := []PartitionEntry{
		{
			Attributes: WholeDiskAttributes,
			CFName:     WholeDiskName,
			Data:       m.Encode(),
			ID:         0,
			Name:       WholeDiskName,
		},
	}

	xml, err := EncodePlist(entries)
	if err != nil {
		t.Fatalf("EncodePlist: %v", err)
	}

	decoded, err := DecodePlist(xml)
	if err != nil {
		t.Fatalf("DecodePlist: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("got %d partitions, want 1", len(decoded))
	}
	if decoded[0].ID != 0 || decoded[0].Name != WholeDiskName || decoded[0].Attributes != WholeDiskAttributes {
		t.Fatalf("partition entry mismatch: %+v", decoded[0])
	}

	remish, _, err := DecodeMishBytes(decoded[0].Data)
	if err != nil {
		t.Fatalf("decode embedded mish: %v", err)
	}
	if remish.SectorCount != m.SectorCount || len(remish.Chunks) != len(m.Chunks) {
		t.Fatalf("embedded mish mismatch: %+v", remish)
	}
}

func TestPlistMissingResourceForkKey(t *testing.T) {
	_, err := DecodePlist([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0"><dict><key>nonsense</key><string>x</string></dict></plist>`))
	if err == nil {
		t.Fatal("expected MissingKeyError, got nil")
	}
	mk, ok := err.(*MissingKeyError)
	if !ok {
		t.Fatalf("expected *MissingKeyError, got %T", err)
	}
	if mk.Name != "resource-fork" {
		t.Fatalf("Name = %q, want resource-fork", mk.Name)
	}
}

func TestPlistNegativeID(t *testing.T) {
	entries := []PartitionEntry{{Attributes: "0x0050", CFName: "meta", Data: []byte{}, ID: -1, Name: "meta"}}
	xml, err := EncodePlist(entries)
	if err != nil {
		t.Fatalf("EncodePlist: %v", err)
	}
	decoded, err := DecodePlist(xml)
	if err != nil {
		t.Fatalf("DecodePlist: %v", err)
	}
	if decoded[0].ID != -1 {
		t.Fatalf("ID = %d, want -1", decoded[0].ID)
	}
}
