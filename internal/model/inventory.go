package model

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// InventoryRecord is one row of the FBA inventory fact, unique on
// (SourceSystem, SID, SellerSKU, FulfillmentChannel).
type InventoryRecord struct {
	SourceSystem       string
	Platform           string
	SID                int64
	WarehouseName      string
	SellerSKU          string
	SKU                string
	ASIN               string
	FNSKU              string
	ProductName        string
	FulfillmentChannel string
	ShareType          int64

	Total          int64
	AvailableTotal int64

	ReservedFCTransfers    int64
	ReservedFCProcessing   int64
	ReservedCustomerOrders int64
	ReservedTotal          int64

	UnsellableQuantity int64

	InboundWorking   int64
	InboundShipped   int64
	InboundReceiving int64
	StockUpNum       int64
	InboundTotal     int64
}

// ExplodeInventory turns one upstream inventory row into records.
//
// Derived totals are always recomputed. A shared-warehouse row (share_type 1
// or 2) with a sub-warehouse list yields one record per sub-warehouse, each
// carrying only quantity_for_local_fulfillment: upstream has no per-warehouse
// split of reserved, inbound or unsellable stock, so those are zero.
// Records whose warehouse id cannot be resolved are counted in skipped.
func ExplodeInventory(raw map[string]any, sourceSystem, platform string) (records []InventoryRecord, skipped int) {
	base := InventoryRecord{
		SourceSystem:       Ident(sourceSystem),
		Platform:           Ident(platform),
		WarehouseName:      Text(raw["name"]),
		SellerSKU:          Ident(raw["seller_sku"]),
		SKU:                Text(raw["sku"]),
		ASIN:               Text(raw["asin"]),
		FNSKU:              Text(raw["fnsku"]),
		ProductName:        Text(raw["product_name"]),
		FulfillmentChannel: Ident(raw["fulfillment_channel"]),
		ShareType:          IntOr(raw["share_type"]),
	}

	if base.ShareType == 1 || base.ShareType == 2 {
		if subs := subWarehouses(raw["fba_storage_quantity_list"]); len(subs) > 0 {
			for _, sub := range subs {
				sid, ok := Int(sub["sid"])
				if !ok || sid == 0 {
					skipped++
					continue
				}
				rec := base
				rec.SID = sid
				if name := Text(sub["name"]); name != "" {
					rec.WarehouseName = name
				}
				qty := IntOr(sub["quantity_for_local_fulfillment"])
				rec.Total = qty
				rec.AvailableTotal = qty
				records = append(records, rec)
			}
			return records, skipped
		}
	}

	sid, ok := Int(raw["sid"])
	if !ok || sid == 0 {
		return nil, 1
	}
	rec := base
	rec.SID = sid
	rec.Total = IntOr(raw["total"])
	rec.AvailableTotal = IntOr(raw["available_total"])
	rec.ReservedFCTransfers = IntOr(raw["reserved_fc_transfers"])
	rec.ReservedFCProcessing = IntOr(raw["reserved_fc_processing"])
	rec.ReservedCustomerOrders = IntOr(raw["reserved_customerorders"])
	rec.UnsellableQuantity = IntOr(raw["afn_unsellable_quantity"])
	rec.InboundWorking = IntOr(raw["afn_inbound_working_quantity"])
	rec.InboundShipped = IntOr(raw["afn_inbound_shipped_quantity"])
	rec.InboundReceiving = IntOr(raw["afn_inbound_receiving_quantity"])
	rec.StockUpNum = IntOr(raw["stock_up_num"])
	rec.ReservedTotal = rec.ReservedFCTransfers + rec.ReservedFCProcessing + rec.ReservedCustomerOrders
	rec.InboundTotal = rec.InboundWorking + rec.InboundShipped + rec.InboundReceiving + rec.StockUpNum
	return []InventoryRecord{rec}, 0
}

func subWarehouses(v any) []map[string]any {
	list, ok := v.([]any)
	if !ok {
		if typed, ok := v.([]map[string]any); ok {
			return typed
		}
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// InventoryKey is the audit identity of a raw inventory row. Rows with no
// identifying fields fall back to a hash of their content.
func InventoryKey(raw map[string]any) string {
	sid, sku, channel := Text(raw["sid"]), Text(raw["seller_sku"]), Text(raw["fulfillment_channel"])
	if sid == "" && sku == "" && channel == "" {
		return contentKey(raw)
	}
	return fmt.Sprintf("%s|%s|%s", sid, sku, channel)
}

// contentKey hashes a record that has no identifying fields. encoding/json
// sorts map keys, so equal records hash equally.
func contentKey(raw map[string]any) string {
	b, _ := json.Marshal(raw)
	sum := sha1.Sum(b)
	return "sha1:" + hex.EncodeToString(sum[:])
}
