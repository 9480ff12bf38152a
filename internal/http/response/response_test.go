package response

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestBuildPagination(t *testing.T) {
	cases := []struct {
		page, size int
		total      int64
		want       int64
	}{
		{page: 1, size: 20, total: 0, want: 0},
		{page: 1, size: 20, total: 20, want: 1},
		{page: 2, size: 20, total: 21, want: 2},
		{page: 1, size: 0, total: 5, want: 0},
	}
	for _, tc := range cases {
		if got := BuildPagination(tc.page, tc.size, tc.total); got.TotalPage != tc.want {
			t.Fatalf("total=%d size=%d want pages %d got %d", tc.total, tc.size, tc.want, got.TotalPage)
		}
	}
}

func TestErrorAttachesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("request_id", "req-1")
	Error(c, CodeConflict, "conflict")

	if w.Code != 200 {
		t.Fatalf("errors are always sent with http 200, got %d", w.Code)
	}
	var body struct {
		StatusCode int               `json:"status_code"`
		Msg        string            `json:"msg"`
		Data       map[string]string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.StatusCode != CodeConflict || body.Msg != "conflict" || body.Data["request_id"] != "req-1" {
		t.Fatalf("unexpected body: %+v", body)
	}
}
