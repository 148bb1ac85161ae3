package dispatch_test

import (
	"testing"
	"time"

	"github.com/stockroomhq/stockroom/internal/dispatch"
)

func TestParams(t *testing.T) {
	now := time.Now()
	params := dispatch.Params{
		"name":     "Rice",
		"count":    int(3),
		"big":      int64(9),
		"price":    12.5,
		"flag":     true,
		"when":     now,
		"blob":     []byte{0x1, 0x2},
		"debts":    []dispatch.Params{{"amount": 10.0}},
		"raw_list": []map[string]any{{"amount": 20.0}},
	}

	t.Run("string", func(t *testing.T) {
		if got := params.String("name"); got != "Rice" {
			t.Errorf("expected Rice, got %q", got)
		}
		if got := params.String("missing"); got != "" {
			t.Errorf("expected empty string for missing key, got %q", got)
		}
		if got := params.String("count"); got != "" {
			t.Errorf("expected empty string for non-string value, got %q", got)
		}
	})

	t.Run("numeric coercion", func(t *testing.T) {
		if got := params.Int64("count"); got != 3 {
			t.Errorf("expected 3, got %d", got)
		}
		if got := params.Int64("big"); got != 9 {
			t.Errorf("expected 9, got %d", got)
		}
		if got := params.Int64("price"); got != 12 {
			t.Errorf("expected truncated 12, got %d", got)
		}
		if got := params.Float64("count"); got != 3 {
			t.Errorf("expected 3, got %v", got)
		}
		if got := params.Float64("missing"); got != 0 {
			t.Errorf("expected 0 for missing key, got %v", got)
		}
	})

	t.Run("bool, time and bytes", func(t *testing.T) {
		if !params.Bool("flag") {
			t.Error("expected true")
		}
		if params.Bool("name") {
			t.Error("expected false for non-bool value")
		}
		if got := params.Time("when"); !got.Equal(now) {
			t.Errorf("expected %v, got %v", now, got)
		}
		if got := params.Bytes("blob"); len(got) != 2 {
			t.Errorf("expected 2 bytes, got %v", got)
		}
	})

	t.Run("nested lists", func(t *testing.T) {
		if got := params.List("debts"); len(got) != 1 || got[0].Float64("amount") != 10 {
			t.Errorf("unexpected debts list: %v", got)
		}
		if got := params.List("raw_list"); len(got) != 1 || got[0].Float64("amount") != 20 {
			t.Errorf("unexpected raw_list: %v", got)
		}
		if got := params.List("missing"); got != nil {
			t.Errorf("expected nil for missing key, got %v", got)
		}
	})

	t.Run("has", func(t *testing.T) {
		if !params.Has("name") {
			t.Error("expected Has to report present key")
		}
		if params.Has("missing") {
			t.Error("expected Has to report absent key")
		}
	})
}

func TestOrigin(t *testing.T) {
	a := dispatch.NewOrigin()
	b := dispatch.NewOrigin()
	if a == b {
		t.Error("expected distinct origin tokens")
	}

	req := dispatch.NewQueryRequest(a, dispatch.DomainStock, "view_stock_items", nil)
	res := dispatch.SuccessResult(req, nil)
	if !res.OriginatedFrom(a) {
		t.Error("expected result to match its origin")
	}
	if res.OriginatedFrom(b) {
		t.Error("expected result not to match a foreign origin")
	}
}
