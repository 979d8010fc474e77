package browserfacade

import (
	"testing"

	"github.com/go-rod/rod/lib/proto"
)

func TestResourceTypeName_MapsToBlockListCategories(t *testing.T) {
	cases := []struct {
		in   proto.NetworkResourceType
		want string
	}{
		{proto.NetworkResourceTypeImage, "images"},
		{proto.NetworkResourceTypeFont, "fonts"},
		{proto.NetworkResourceTypeMedia, "media"},
		{proto.NetworkResourceTypeStylesheet, "stylesheets"},
		{proto.NetworkResourceTypeScript, "script"},
	}
	for _, c := range cases {
		if got := resourceTypeName(c.in); got != c.want {
			t.Errorf("resourceTypeName(%v): got %q, want %q", c.in, got, c.want)
		}
	}
}
