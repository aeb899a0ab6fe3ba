package scte35

import (
	"encoding/hex"
	"testing"
)

// Golden vectors: known-good SCTE-35 wire bytes for each splice scenario,
// used to check decode against real section layouts rather than only
// against this package's own fixtures.
var goldenVectors = map[string]string{
	"ProviderAdStart":       "fc302700000000000000fff00506fe000dbba00011020f43554549000000017fbf0000300101ee197d02",
	"DistributorAdStart":    "fc302c00000000000000fff00506fe000dbba00016021443554549000000027fff00002932e000003201031233f909",
	"DistributorAdEnd":      "fc302700000000000000fff00506fe000dbba00011020f43554549000000037fbf000033010352b10a71",
	"ProviderAdEnd":         "fc302700000000000000fff00506fe000dbba00011020f43554549000000047fbf0000310101de2663d0",
	"SpliceInsertOut":       "fc303200000000000000fff01005000000057fbf00fe007b98a0000101010011020f43554549000000057fbf00002201017f1add87",
	"SpliceInsertIn":        "fc302d00000000000000fff00b05000000067f1f00000101010011020f43554549000000067fbf0000230101c2262974",
	"ProgramStart":          "fc302700000000000000fff00506fe000dbba00011020f43554549000000077fbf0000100000ded1e682",
	"ContentID":             "fc302700000000000000fff00506fe000dbba00011020f43554549000000087fbf000001000090ab548a",
	"ChapterStart":          "fc302c00000000000000fff00506fe000dbba00016021443554549000000097fff00019bfcc00000200105bb3c1919",
	"ChapterEnd":            "fc302700000000000000fff00506fe000dbba00011020f435545490000000a7fbf0000210105d921d749",
	"NetworkStart":          "fc302700000000000000fff00506fe000dbba00011020f435545490000000b7fbf0000500000163074e3",
	"ProgramEnd":            "fc302700000000000000fff00506fe000dbba00011020f435545490000000c7fbf0000110000e767f265",
	"UnscheduledEventStart": "fc302700000000000000fff00506fe000dbba00011020f435545490000000d7fbf0000400000d6bf6b98",
	"UnscheduledEventEnd":   "fc302700000000000000fff00506fe000dbba00011020f435545490000000e7fbf00004100003b85a241",
	"ProviderPOStart":       "fc302c00000000000000fff00506fe000dbba000160214435545490000000f7fff00005265c0000034010288c9acbd",
	"ProviderPOEnd":         "fc302700000000000000fff00506fe000dbba00011020f43554549000000107fbf000035010213993e41",
}

func TestDecodeGoldenVectors(t *testing.T) {
	t.Parallel()
	for name, hexStr := range goldenVectors {
		data, err := hex.DecodeString(hexStr)
		if err != nil {
			t.Fatalf("%s: hex decode: %v", name, err)
		}
		sis, err := DecodeBytes(data)
		if err != nil {
			t.Errorf("%s: DecodeBytes failed: %v", name, err)
			continue
		}
		if sis.SpliceCommand == nil {
			t.Errorf("%s: SpliceCommand is nil", name)
		}
	}
}

func TestDecodeCorruptedCRC(t *testing.T) {
	t.Parallel()
	data, _ := hex.DecodeString(goldenVectors["ProviderAdStart"])
	data[10] ^= 0xFF
	_, err := DecodeBytes(data)
	if err == nil {
		t.Error("expected CRC error on corrupted data")
	}
}

// fixtureSection hand-assembles a minimal splice_info_section byte-for-byte
// (table_id, sap_type=3, tier=0xFFF, zero-length command of cmdType, no
// descriptors) so decode edge cases can be exercised without an encoder.
func fixtureSection(cmdType byte) []byte {
	b := []byte{
		0xFC,                         // table_id
		0x30,                         // section_syntax_indicator=0, private_indicator=0, sap_type=3, hi bits of section_length
		0x11,                         // section_length low byte (17 bytes follow, CRC included)
		0x00,                         // protocol_version
		0x00, 0x00, 0x00, 0x00, 0x00, // encrypted_packet + algorithm + pts_adjustment, all zero
		0x00,       // cw_index
		0xFF, 0xF0, // tier(12 bits) + splice_command_length high nibble
		0x00,       // splice_command_length low byte (0)
		cmdType,    // splice_command_type
		0x00, 0x00, // descriptor_loop_length
	}
	crc := crc32MPEG2(b)
	b = append(b, byte(crc>>24), byte(crc>>16), byte(crc>>8), byte(crc))
	return b
}

func TestDecodeUnknownCommandType(t *testing.T) {
	t.Parallel()
	sis, err := DecodeBytes(fixtureSection(0xFF))
	if err != nil {
		t.Fatalf("DecodeBytes failed on unknown command: %v", err)
	}
	if sis.SpliceCommand == nil {
		t.Fatal("SpliceCommand is nil")
	}
}

func TestSegmentationDescriptorName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		typeID uint32
		want   string
	}{
		{SegmentationTypeProviderAdStart, "Provider Advertisement Start"},
		{SegmentationTypeDistributorAdEnd, "Distributor Advertisement End"},
		{SegmentationTypeBreakStart, "Break Start"},
		{SegmentationTypeProgramStart, "Program Start"},
		{SegmentationTypeNetworkStart, "Network Start"},
		{SegmentationTypeChapterStart, "Chapter Start"},
		{SegmentationTypeUnscheduledEventStart, "Unscheduled Event Start"},
		{SegmentationTypeProviderPOStart, "Provider Placement Opportunity Start"},
		{SegmentationTypeContentIdentification, "Content Identification"},
		{0xFE, "Unknown"},
	}
	for _, tc := range tests {
		sd := &SegmentationDescriptor{SegmentationTypeID: tc.typeID}
		if got := sd.Name(); got != tc.want {
			t.Errorf("Name() for 0x%02X = %q, want %q", tc.typeID, got, tc.want)
		}
	}
}

func TestDecodeSpliceNull(t *testing.T) {
	t.Parallel()
	decoded, err := DecodeBytes(fixtureSection(byte(SpliceNullType)))
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	if _, ok := decoded.SpliceCommand.(*SpliceNull); !ok {
		t.Errorf("expected SpliceNull, got %T", decoded.SpliceCommand)
	}
}
