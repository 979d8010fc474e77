package leak

import (
	"testing"

	"github.com/go-rod/rod/lib/proto"
)

func TestScanPreview_FindsVariantInPropertyValue(t *testing.T) {
	variants := []string{"The--P@s5w0rd"}
	preview := &proto.RuntimeObjectPreview{
		Properties: []*proto.RuntimePropertyPreview{
			{Name: "password", Value: "The--P@s5w0rd"},
		},
	}
	hit, rendered := scanPreview(preview, variants)
	if !hit {
		t.Fatalf("scanPreview: got hit=false, want true for a matching property value")
	}
	if rendered != "The--P@s5w0rd" {
		t.Errorf("scanPreview: got rendered %q, want the matched value", rendered)
	}
}

func TestScanPreview_FindsVariantInPropertyKey(t *testing.T) {
	variants := []string{"The--P@s5w0rd"}
	preview := &proto.RuntimeObjectPreview{
		Properties: []*proto.RuntimePropertyPreview{
			{Name: "The--P@s5w0rd", Value: "unrelated"},
		},
	}
	hit, _ := scanPreview(preview, variants)
	if !hit {
		t.Errorf("scanPreview: got hit=false, want true when the variant appears as a property key")
	}
}

func TestScanPreview_RecursesIntoNestedValuePreview(t *testing.T) {
	variants := []string{"The--P@s5w0rd"}
	nested := &proto.RuntimeObjectPreview{
		Properties: []*proto.RuntimePropertyPreview{
			{Name: "0", Value: "The--P@s5w0rd"},
		},
	}
	preview := &proto.RuntimeObjectPreview{
		Properties: []*proto.RuntimePropertyPreview{
			{Name: "items", ValuePreview: nested},
		},
	}
	hit, _ := scanPreview(preview, variants)
	if !hit {
		t.Errorf("scanPreview: got hit=false, want true for a variant nested inside a ValuePreview")
	}
}

func TestScanPreview_RecursesIntoMapEntries(t *testing.T) {
	variants := []string{"The--P@s5w0rd"}
	preview := &proto.RuntimeObjectPreview{
		Entries: []*proto.RuntimeEntryPreview{
			{
				Key:   &proto.RuntimeObjectPreview{Description: "unrelated-key"},
				Value: &proto.RuntimeObjectPreview{Description: "The--P@s5w0rd"},
			},
		},
	}
	hit, _ := scanPreview(preview, variants)
	if !hit {
		t.Errorf("scanPreview: got hit=false, want true for a variant inside a Map entry's value")
	}
}

func TestScanPreview_NoMatchReturnsFalse(t *testing.T) {
	variants := []string{"The--P@s5w0rd"}
	preview := &proto.RuntimeObjectPreview{
		Properties: []*proto.RuntimePropertyPreview{
			{Name: "username", Value: "not-the-password"},
		},
	}
	hit, _ := scanPreview(preview, variants)
	if hit {
		t.Errorf("scanPreview: got hit=true, want false when no variant appears anywhere")
	}
}

func TestScanPreview_NilPreviewReturnsFalse(t *testing.T) {
	hit, rendered := scanPreview(nil, []string{"x"})
	if hit || rendered != "" {
		t.Errorf("scanPreview(nil): got (%v, %q), want (false, \"\")", hit, rendered)
	}
}
