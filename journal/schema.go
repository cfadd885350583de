package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL DEFAULT '',
	trade_id TEXT NOT NULL,
	instrument TEXT NOT NULL,
	side TEXT NOT NULL,
	units REAL NOT NULL,
	margin REAL NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	stop_loss REAL NOT NULL,
	open_time DATETIME NOT NULL,
	close_time DATETIME NOT NULL,
	realized_pl REAL NOT NULL,
	balance REAL NOT NULL,
	reason TEXT NOT NULL,
	PRIMARY KEY (run_id, trade_id)
);

CREATE INDEX IF NOT EXISTS idx_trades_close_time ON trades(close_time);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL DEFAULT '',
	time DATETIME NOT NULL,
	balance REAL NOT NULL,
	equity REAL NOT NULL,
	margin_used REAL NOT NULL,
	free_margin REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_equity_time ON equity(time);
CREATE INDEX IF NOT EXISTS idx_equity_run ON equity(run_id);

CREATE TABLE IF NOT EXISTS backtest_runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	timeframe TEXT NOT NULL,
	dataset TEXT NOT NULL,
	instrument TEXT NOT NULL,
	strategy TEXT NOT NULL,
	config BLOB,
	leverage REAL NOT NULL,
	margin_ratio REAL NOT NULL,
	spread REAL NOT NULL,
	stop_policy TEXT NOT NULL,
	trigger_mode TEXT NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	skipped INTEGER NOT NULL,
	start_balance REAL NOT NULL,
	end_balance REAL NOT NULL,
	net_pl REAL NOT NULL,
	return_pct REAL NOT NULL,
	win_rate REAL NOT NULL,
	profit_factor REAL NOT NULL,
	max_dd_pct REAL NOT NULL,
	git_commit TEXT NOT NULL,
	org_path TEXT NOT NULL,
	notes TEXT NOT NULL
);
`
