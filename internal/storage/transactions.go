package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Veraticus/riskflow/internal/frame"
	"github.com/Veraticus/riskflow/internal/model"
)

const transactionColumns = `transaction_id, hash, batch_id, account_id, subscription_id, customer_id,
	currency_code, country_code, provider_id, product_id, product_category, channel_id,
	amount, value, start_time, pricing_strategy, fraud_result`

// SaveTransactions inserts transactions, skipping rows whose hash is already
// stored. It returns the number of rows inserted.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateTransactions(transactions); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted, err := s.saveTransactionsTx(ctx, tx, transactions)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transactions: %w", err)
	}

	slog.Debug("Saved transactions", "inserted", inserted, "skipped", len(transactions)-inserted)
	return inserted, nil
}

func (s *SQLiteStorage) saveTransactionsTx(ctx context.Context, tx *sql.Tx, transactions []model.Transaction) (int, error) {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for _, txn := range transactions {
		if txn.Hash == "" {
			txn.Hash = txn.GenerateHash()
		}

		res, err := stmt.ExecContext(ctx,
			txn.ID,
			txn.Hash,
			txn.BatchID,
			txn.AccountID,
			txn.SubscriptionID,
			txn.CustomerID,
			txn.CurrencyCode,
			txn.CountryCode,
			txn.ProviderID,
			txn.ProductID,
			txn.ProductCategory,
			txn.ChannelID,
			txn.Amount,
			txn.Value,
			txn.StartTime,
			txn.PricingStrategy,
			txn.FraudResult,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to count inserted rows: %w", err)
		}
		inserted += int(n)
	}
	return inserted, nil
}

// GetTransactions returns every stored transaction in insertion order.
func (s *SQLiteStorage) GetTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}

// LoadTransactions returns the stored transactions as a frame in the raw
// input schema.
func (s *SQLiteStorage) LoadTransactions(ctx context.Context) (*frame.Frame, error) {
	transactions, err := s.GetTransactions(ctx)
	if err != nil {
		return nil, err
	}
	return frame.FromTransactions(transactions), nil
}

// GetTransactionCount returns the number of stored transactions.
func (s *SQLiteStorage) GetTransactionCount(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

func scanTransaction(rows *sql.Rows) (model.Transaction, error) {
	var txn model.Transaction
	var batch, account, subscription, currency, country, provider, product, category, channel, start, pricing, fraud sql.NullString
	err := rows.Scan(
		&txn.ID,
		&txn.Hash,
		&batch,
		&account,
		&subscription,
		&txn.CustomerID,
		&currency,
		&country,
		&provider,
		&product,
		&category,
		&channel,
		&txn.Amount,
		&txn.Value,
		&start,
		&pricing,
		&fraud,
	)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to scan transaction: %w", err)
	}
	txn.BatchID = batch.String
	txn.AccountID = account.String
	txn.SubscriptionID = subscription.String
	txn.CurrencyCode = currency.String
	txn.CountryCode = country.String
	txn.ProviderID = provider.String
	txn.ProductID = product.String
	txn.ProductCategory = category.String
	txn.ChannelID = channel.String
	txn.StartTime = start.String
	txn.PricingStrategy = pricing.String
	txn.FraudResult = fraud.String
	return txn, nil
}
