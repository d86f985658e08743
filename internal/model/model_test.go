package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"lxsync/pkg/syncerr"
)

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return m
}

func TestExplodeInventory_RecomputesTotals(t *testing.T) {
	raw := decode(t, `{
		"sid": 999001, "name": "US", "seller_sku": " PYTEST-SKU-01 ", "fulfillment_channel": "AMAZON_NA",
		"share_type": 0, "total": 10, "available_total": "8",
		"reserved_fc_transfers": 1, "reserved_fc_processing": 1, "reserved_customerorders": 0,
		"afn_inbound_working_quantity": 2, "afn_inbound_shipped_quantity": 1,
		"afn_inbound_receiving_quantity": 0, "stock_up_num": 0,
		"reserved_total": 999, "inbound_total": 999
	}`)

	recs, skipped := ExplodeInventory(raw, "LINGXING", "AMAZON")
	if skipped != 0 || len(recs) != 1 {
		t.Fatalf("got %d records, %d skipped", len(recs), skipped)
	}
	r := recs[0]
	if r.ReservedTotal != 2 || r.InboundTotal != 3 {
		t.Fatalf("reserved=%d inbound=%d, want 2 and 3", r.ReservedTotal, r.InboundTotal)
	}
	if r.SourceSystem != "lingxing" || r.SellerSKU != "pytest-sku-01" || r.FulfillmentChannel != "amazon_na" {
		t.Fatalf("identifiers not normalized: %+v", r)
	}
	if r.AvailableTotal != 8 || r.Total != 10 {
		t.Fatalf("quantities = %d/%d", r.Total, r.AvailableTotal)
	}
}

func TestExplodeInventory_SharedWarehouse(t *testing.T) {
	raw := decode(t, `{
		"sid": 1, "seller_sku": "SKU", "fulfillment_channel": "AMAZON_EU", "share_type": 1,
		"total": 50, "reserved_fc_transfers": 5, "afn_inbound_working_quantity": 7,
		"fba_storage_quantity_list": [
			{"sid": 11, "name": "DE", "quantity_for_local_fulfillment": 30},
			{"sid": 12, "name": "FR", "quantity_for_local_fulfillment": "20"}
		]
	}`)

	recs, skipped := ExplodeInventory(raw, "LINGXING", "AMAZON")
	if skipped != 0 || len(recs) != 2 {
		t.Fatalf("got %d records, %d skipped", len(recs), skipped)
	}
	want := map[int64]int64{11: 30, 12: 20}
	for _, r := range recs {
		if r.Total != want[r.SID] || r.AvailableTotal != want[r.SID] {
			t.Fatalf("sid %d: total=%d available=%d", r.SID, r.Total, r.AvailableTotal)
		}
		if r.ReservedTotal != 0 || r.InboundTotal != 0 || r.ReservedFCTransfers != 0 || r.InboundWorking != 0 {
			t.Fatalf("sid %d: reserved/inbound not zeroed: %+v", r.SID, r)
		}
	}
	if recs[0].WarehouseName != "DE" || recs[1].WarehouseName != "FR" {
		t.Fatalf("names = %s, %s", recs[0].WarehouseName, recs[1].WarehouseName)
	}
}

func TestExplodeInventory_SharedWithoutListUsesTopLevel(t *testing.T) {
	raw := decode(t, `{"sid": 5, "seller_sku": "a", "share_type": 2, "total": 4, "fba_storage_quantity_list": []}`)
	recs, _ := ExplodeInventory(raw, "s", "p")
	if len(recs) != 1 || recs[0].SID != 5 || recs[0].Total != 4 {
		t.Fatalf("recs = %+v", recs)
	}
}

func TestExplodeInventory_SkipsUnresolvableWarehouse(t *testing.T) {
	if recs, skipped := ExplodeInventory(decode(t, `{"seller_sku": "a"}`), "s", "p"); len(recs) != 0 || skipped != 1 {
		t.Fatalf("recs=%v skipped=%d", recs, skipped)
	}
	raw := decode(t, `{"share_type": 1, "fba_storage_quantity_list": [{"sid": 3}, {"name": "no id"}]}`)
	recs, skipped := ExplodeInventory(raw, "s", "p")
	if len(recs) != 1 || skipped != 1 {
		t.Fatalf("recs=%d skipped=%d", len(recs), skipped)
	}
}

func TestNormalizeStore(t *testing.T) {
	raw := decode(t, `{"sid": 99999999, "seller_id": " TEST-SELLER-XYZ ", "marketplace_id": "TEST-MARKET-US",
		"name": " Test Store A ", "has_ads_setting": "1", "status": 1, "mid": 1}`)
	rec, err := NormalizeStore(raw, "LINGXING", "AMAZON")
	if err != nil {
		t.Fatalf("NormalizeStore: %v", err)
	}
	if rec.SID != 99999999 || rec.SellerID != "test-seller-xyz" || rec.MarketplaceID != "test-market-us" {
		t.Fatalf("rec = %+v", rec)
	}
	if rec.Name != "Test Store A" || rec.HasAdsSetting != 1 || rec.Platform != "amazon" {
		t.Fatalf("rec = %+v", rec)
	}

	for _, bad := range []string{
		`{"seller_id": "s", "marketplace_id": "m"}`,
		`{"sid": 1, "marketplace_id": "m"}`,
		`{"sid": 1, "seller_id": "s", "marketplace_id": "  "}`,
	} {
		_, err := NormalizeStore(decode(t, bad), "x", "y")
		if err == nil {
			t.Fatalf("expected skip for %s", bad)
		}
		if syncerr.KindOf(err) != syncerr.KindDataQuality {
			t.Fatalf("kind = %v for %s", syncerr.KindOf(err), bad)
		}
	}
}

func TestCode(t *testing.T) {
	var body struct {
		A Code `json:"a"`
		B Code `json:"b"`
		C Code `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":0,"b":"200","c":2001006}`), &body); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !body.A.Is(0) || !body.B.Is(200) || !body.C.Is(2001006) || body.A.Is(200) {
		t.Fatalf("codes = %+v", body)
	}
	out, _ := json.Marshal(body)
	if string(out) != `{"a":0,"b":200,"c":2001006}` {
		t.Fatalf("Marshal = %s", out)
	}
}

func TestSeconds(t *testing.T) {
	var body struct {
		N Seconds `json:"n"`
		S Seconds `json:"s"`
	}
	if err := json.Unmarshal([]byte(`{"n":7200,"s":"3600"}`), &body); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if body.N != 7200 || body.S != 3600 {
		t.Fatalf("seconds = %+v", body)
	}
	if err := json.Unmarshal([]byte(`{"n":"soon"}`), &body); err == nil {
		t.Fatalf("expected error for non-numeric seconds")
	}
}

func TestInt(t *testing.T) {
	cases := []struct {
		in   any
		want int64
		ok   bool
	}{
		{json.Number("42"), 42, true},
		{"  7 ", 7, true},
		{"3.0", 3, true},
		{float64(9), 9, true},
		{"", 0, false},
		{nil, 0, false},
		{"abc", 0, false},
	}
	for _, tc := range cases {
		got, ok := Int(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("Int(%#v) = %d,%v want %d,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNewEnvelope(t *testing.T) {
	at := time.Date(2026, 4, 5, 6, 7, 8, 0, time.Local)
	env := NewEnvelope([]map[string]any{{"sid": 1}, {"sid": 2}}, at, "rid")
	if !env.Code.Is(0) || env.Total != 2 || env.ResponseTime != "2026-04-05 06:07:08" {
		t.Fatalf("env = %+v", env)
	}
	got, ok := env.RespondedAt()
	if !ok || !got.Equal(at) {
		t.Fatalf("RespondedAt = %v %v", got, ok)
	}
	if empty := NewEnvelope(nil, at, ""); empty.Data == nil || empty.Total != 0 {
		t.Fatalf("empty envelope = %+v", empty)
	}
}

func TestInventoryKey(t *testing.T) {
	if got := InventoryKey(map[string]any{"sid": json.Number("1"), "seller_sku": "A", "fulfillment_channel": "X"}); got != "1|A|X" {
		t.Fatalf("InventoryKey = %s", got)
	}
	a := InventoryKey(map[string]any{"total": 1})
	b := InventoryKey(map[string]any{"total": 1})
	if a != b || !strings.HasPrefix(a, "sha1:") {
		t.Fatalf("fallback keys %s %s", a, b)
	}
}

func TestStoreKey(t *testing.T) {
	if got := StoreKey(map[string]any{"sid": json.Number("42"), "name": "A"}); got != "42" {
		t.Fatalf("StoreKey = %s", got)
	}
	a := StoreKey(map[string]any{"name": "first", "seller_id": "S1"})
	b := StoreKey(map[string]any{"name": "second", "seller_id": "S2"})
	if !strings.HasPrefix(a, "sha1:") || a == b {
		t.Fatalf("rows without sid must get distinct content keys: %s %s", a, b)
	}
	if again := StoreKey(map[string]any{"seller_id": "S1", "name": "first"}); again != a {
		t.Fatalf("content key not stable: %s vs %s", again, a)
	}
}
