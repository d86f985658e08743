package model

import (
	"fmt"

	"lxsync/pkg/syncerr"
)

const opNormalizeStore = "model.normalize_store"

// StoreRecord is one row of the stores dimension. It is unique on
// (SourceSystem, SID) and on (Platform, SellerID, MarketplaceID).
type StoreRecord struct {
	SourceSystem    string
	Platform        string
	SID             int64
	MID             int64
	Name            string
	SellerID        string
	AccountName     string
	SellerAccountID int64
	Region          string
	Country         string
	HasAdsSetting   int64
	MarketplaceID   string
	Status          int64
}

// NormalizeStore maps one upstream shop row to a StoreRecord. It returns a
// non-nil reason when a natural-key field is missing.
func NormalizeStore(raw map[string]any, sourceSystem, platform string) (StoreRecord, error) {
	sid, ok := Int(raw["sid"])
	if !ok || sid == 0 {
		return StoreRecord{}, syncerr.DataQuality(opNormalizeStore, "missing sid")
	}
	rec := StoreRecord{
		SourceSystem:    Ident(sourceSystem),
		Platform:        Ident(platform),
		SID:             sid,
		MID:             IntOr(raw["mid"]),
		Name:            Text(raw["name"]),
		SellerID:        Ident(raw["seller_id"]),
		AccountName:     Text(raw["account_name"]),
		SellerAccountID: IntOr(raw["seller_account_id"]),
		Region:          Text(raw["region"]),
		Country:         Text(raw["country"]),
		HasAdsSetting:   IntOr(raw["has_ads_setting"]),
		MarketplaceID:   Ident(raw["marketplace_id"]),
		Status:          IntOr(raw["status"]),
	}
	if rec.SellerID == "" {
		return StoreRecord{}, syncerr.DataQuality(opNormalizeStore, fmt.Sprintf("sid %d: missing seller_id", sid))
	}
	if rec.MarketplaceID == "" {
		return StoreRecord{}, syncerr.DataQuality(opNormalizeStore, fmt.Sprintf("sid %d: missing marketplace_id", sid))
	}
	return rec, nil
}

// StoreKey is the audit identity of a raw shop row. Rows without a sid fall
// back to a hash of their content.
func StoreKey(raw map[string]any) string {
	if sid := Text(raw["sid"]); sid != "" {
		return sid
	}
	return contentKey(raw)
}
