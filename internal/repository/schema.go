package repository

// The run log must stay the last entry of each schema: RunsSchema relies on it.

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS original_data (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		source_system VARCHAR(64) NOT NULL,
		kind VARCHAR(32) NOT NULL,
		record_key VARCHAR(255) NOT NULL,
		code VARCHAR(32) NOT NULL DEFAULT '',
		message VARCHAR(512) NOT NULL DEFAULT '',
		error_details JSON NULL,
		request_id VARCHAR(64) NOT NULL DEFAULT '',
		response_time DATETIME NULL,
		sid BIGINT NULL,
		name VARCHAR(255) NOT NULL DEFAULT '',
		payload JSON NOT NULL,
		ingested_at DATETIME NOT NULL,
		UNIQUE KEY uk_original_record (source_system, kind, record_key)
	) DEFAULT CHARSET=utf8mb4 COMMENT='raw upstream records, one row per record'`,

	`CREATE TABLE IF NOT EXISTS stores (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		source_system VARCHAR(64) NOT NULL,
		platform VARCHAR(64) NOT NULL,
		sid BIGINT NOT NULL,
		mid BIGINT NOT NULL DEFAULT 0,
		name VARCHAR(255) NOT NULL DEFAULT '',
		seller_id VARCHAR(128) NOT NULL,
		account_name VARCHAR(255) NOT NULL DEFAULT '',
		seller_account_id BIGINT NOT NULL DEFAULT 0,
		region VARCHAR(32) NOT NULL DEFAULT '',
		country VARCHAR(64) NOT NULL DEFAULT '',
		has_ads_setting INT NOT NULL DEFAULT 0,
		marketplace_id VARCHAR(64) NOT NULL,
		status INT NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL,
		UNIQUE KEY uk_stores_source_sid (source_system, sid),
		UNIQUE KEY uk_stores_platform_seller (platform, seller_id, marketplace_id)
	) DEFAULT CHARSET=utf8mb4 COMMENT='store dimension'`,

	`CREATE TABLE IF NOT EXISTS inventory_fba_current (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		source_system VARCHAR(64) NOT NULL,
		platform VARCHAR(64) NOT NULL,
		sid BIGINT NOT NULL,
		warehouse_name VARCHAR(255) NOT NULL DEFAULT '',
		seller_sku VARCHAR(255) NOT NULL,
		sku VARCHAR(255) NOT NULL DEFAULT '',
		asin VARCHAR(32) NOT NULL DEFAULT '',
		fnsku VARCHAR(32) NOT NULL DEFAULT '',
		product_name VARCHAR(512) NOT NULL DEFAULT '',
		fulfillment_channel VARCHAR(64) NOT NULL,
		share_type INT NOT NULL DEFAULT 0,
		total BIGINT NOT NULL DEFAULT 0,
		available_total BIGINT NOT NULL DEFAULT 0,
		reserved_fc_transfers BIGINT NOT NULL DEFAULT 0,
		reserved_fc_processing BIGINT NOT NULL DEFAULT 0,
		reserved_customerorders BIGINT NOT NULL DEFAULT 0,
		reserved_total BIGINT NOT NULL DEFAULT 0,
		afn_unsellable_quantity BIGINT NOT NULL DEFAULT 0,
		afn_inbound_working_quantity BIGINT NOT NULL DEFAULT 0,
		afn_inbound_shipped_quantity BIGINT NOT NULL DEFAULT 0,
		afn_inbound_receiving_quantity BIGINT NOT NULL DEFAULT 0,
		stock_up_num BIGINT NOT NULL DEFAULT 0,
		inbound_total BIGINT NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL,
		UNIQUE KEY uk_inventory_natural (source_system, sid, seller_sku, fulfillment_channel)
	) DEFAULT CHARSET=utf8mb4 COMMENT='current FBA inventory'`,

	`CREATE TABLE IF NOT EXISTS ingestion_runs (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		run_id VARCHAR(64) NOT NULL DEFAULT '',
		job_name VARCHAR(200) NOT NULL,
		started_at DATETIME NOT NULL,
		ended_at DATETIME NOT NULL,
		success_count INT NOT NULL DEFAULT 0,
		fail_count INT NOT NULL DEFAULT 0,
		note TEXT NULL,
		KEY idx_runs_job (job_name, started_at)
	) DEFAULT CHARSET=utf8mb4 COMMENT='sync run log'`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS original_data (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_system TEXT NOT NULL,
		kind TEXT NOT NULL,
		record_key TEXT NOT NULL,
		code TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL DEFAULT '',
		error_details TEXT,
		request_id TEXT NOT NULL DEFAULT '',
		response_time DATETIME,
		sid INTEGER,
		name TEXT NOT NULL DEFAULT '',
		payload TEXT NOT NULL,
		ingested_at DATETIME NOT NULL,
		UNIQUE (source_system, kind, record_key)
	)`,

	`CREATE TABLE IF NOT EXISTS stores (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_system TEXT NOT NULL,
		platform TEXT NOT NULL,
		sid INTEGER NOT NULL,
		mid INTEGER NOT NULL DEFAULT 0,
		name TEXT NOT NULL DEFAULT '',
		seller_id TEXT NOT NULL,
		account_name TEXT NOT NULL DEFAULT '',
		seller_account_id INTEGER NOT NULL DEFAULT 0,
		region TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		has_ads_setting INTEGER NOT NULL DEFAULT 0,
		marketplace_id TEXT NOT NULL,
		status INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL,
		UNIQUE (source_system, sid),
		UNIQUE (platform, seller_id, marketplace_id)
	)`,

	`CREATE TABLE IF NOT EXISTS inventory_fba_current (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_system TEXT NOT NULL,
		platform TEXT NOT NULL,
		sid INTEGER NOT NULL,
		warehouse_name TEXT NOT NULL DEFAULT '',
		seller_sku TEXT NOT NULL,
		sku TEXT NOT NULL DEFAULT '',
		asin TEXT NOT NULL DEFAULT '',
		fnsku TEXT NOT NULL DEFAULT '',
		product_name TEXT NOT NULL DEFAULT '',
		fulfillment_channel TEXT NOT NULL,
		share_type INTEGER NOT NULL DEFAULT 0,
		total INTEGER NOT NULL DEFAULT 0,
		available_total INTEGER NOT NULL DEFAULT 0,
		reserved_fc_transfers INTEGER NOT NULL DEFAULT 0,
		reserved_fc_processing INTEGER NOT NULL DEFAULT 0,
		reserved_customerorders INTEGER NOT NULL DEFAULT 0,
		reserved_total INTEGER NOT NULL DEFAULT 0,
		afn_unsellable_quantity INTEGER NOT NULL DEFAULT 0,
		afn_inbound_working_quantity INTEGER NOT NULL DEFAULT 0,
		afn_inbound_shipped_quantity INTEGER NOT NULL DEFAULT 0,
		afn_inbound_receiving_quantity INTEGER NOT NULL DEFAULT 0,
		stock_up_num INTEGER NOT NULL DEFAULT 0,
		inbound_total INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL,
		UNIQUE (source_system, sid, seller_sku, fulfillment_channel)
	)`,

	`CREATE TABLE IF NOT EXISTS ingestion_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL DEFAULT '',
		job_name TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		ended_at DATETIME NOT NULL,
		success_count INTEGER NOT NULL DEFAULT 0,
		fail_count INTEGER NOT NULL DEFAULT 0,
		note TEXT
	)`,
}
