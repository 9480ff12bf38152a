package i18n

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestResolveLocale(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		header map[string]string
		want   string
	}{
		{name: "default", want: LocaleZhCN},
		{name: "x-locale wins", header: map[string]string{"X-Locale": "en", "Accept-Language": "zh-CN"}, want: LocaleEnUS},
		{name: "accept language", header: map[string]string{"Accept-Language": "fr-FR, en-GB;q=0.8"}, want: LocaleEnUS},
		{name: "unsupported", header: map[string]string{"Accept-Language": "ja-JP"}, want: LocaleZhCN},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.header {
				c.Request.Header.Set(k, v)
			}
			if got := ResolveLocale(c); got != tc.want {
				t.Fatalf("locale want %s got %s", tc.want, got)
			}
		})
	}
}

func TestTranslateFallback(t *testing.T) {
	if got := T(LocaleEnUS, "error.already_purchased"); got != "Content already purchased" {
		t.Fatalf("unexpected translation: %s", got)
	}
	if got := T("ja-JP", "error.already_purchased"); got != "已购买过该课程" {
		t.Fatalf("unsupported locale should fall back to default, got %s", got)
	}
	if got := T(LocaleEnUS, "error.unknown_key"); got != "error.unknown_key" {
		t.Fatalf("missing key should be returned as-is, got %s", got)
	}
	if got := Sprintf(LocaleEnUS, "error.rate_limited", 5); got != "Too many requests, retry in 5 seconds" {
		t.Fatalf("unexpected formatted message: %s", got)
	}
}

func TestCatalogLocalesHaveSameKeys(t *testing.T) {
	for key := range catalog[LocaleZhCN] {
		if _, ok := catalog[LocaleEnUS][key]; !ok {
			t.Fatalf("en-US missing key %s", key)
		}
	}
	for key := range catalog[LocaleEnUS] {
		if _, ok := catalog[LocaleZhCN][key]; !ok {
			t.Fatalf("zh-CN missing key %s", key)
		}
	}
}
