package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"

	"github.com/Veraticus/riskflow/internal/model"
)

// OFX channel recorded for every imported row.
const ofxChannel = "ofx"

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// OFXParser converts OFX/QFX bank and credit card statements into raw
// transaction records. The account is used as the customer identifier.
type OFXParser struct{}

// NewOFXParser creates a new OFX parser.
func NewOFXParser() *OFXParser {
	return &OFXParser{}
}

// preprocess fixes common formatting issues in OFX files.
func (p *OFXParser) preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// SGML-style files often leave opening tags without a closing bracket.
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// ParseFile parses an OFX/QFX document.
func (p *OFXParser) ParseFile(ctx context.Context, reader io.Reader) ([]model.Transaction, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var transactions []model.Transaction
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		bankStmts++
		account := statementAccount{
			customer: string(stmt.BankAcctFrom.AcctID),
			provider: string(stmt.BankAcctFrom.BankID),
			product:  fmt.Sprintf("%v", stmt.BankAcctFrom.AcctType),
			currency: stmt.CurDef.String(),
		}
		for _, tx := range stmt.BankTranList.Transactions {
			transactions = append(transactions, p.convert(tx, account))
		}
	}

	for _, msg := range resp.CreditCard {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		ccStmts++
		account := statementAccount{
			customer: string(stmt.CCAcctFrom.AcctID),
			provider: "creditcard",
			product:  "CREDITCARD",
			currency: stmt.CurDef.String(),
		}
		for _, tx := range stmt.BankTranList.Transactions {
			transactions = append(transactions, p.convert(tx, account))
		}
	}

	slog.Info("Parsed OFX file",
		"total_transactions", len(transactions),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return transactions, nil
}

type statementAccount struct {
	customer string
	provider string
	product  string
	currency string
}

// convert maps one OFX transaction onto the raw schema. OFX has no country,
// subscription or pricing data; those columns get fixed placeholders.
func (p *OFXParser) convert(tx ofxgo.Transaction, account statementAccount) model.Transaction {
	amount, _ := tx.TrnAmt.Float64()

	out := model.Transaction{
		ID:              string(tx.FiTID),
		BatchID:         tx.DtPosted.Time.UTC().Format("20060102"),
		AccountID:       account.customer,
		SubscriptionID:  account.customer,
		CustomerID:      account.customer,
		CurrencyCode:    account.currency,
		CountryCode:     "",
		ProviderID:      account.provider,
		ProductID:       account.product,
		ProductCategory: fmt.Sprintf("%v", tx.TrnType),
		ChannelID:       ofxChannel,
		PricingStrategy: "0",
		FraudResult:     "0",
		StartTime:       tx.DtPosted.Time.UTC().Format(time.RFC3339),
		Amount:          sql.NullFloat64{Float64: amount, Valid: true},
		Value:           sql.NullFloat64{Float64: abs(amount), Valid: true},
	}
	out.Hash = out.GenerateHash()
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
