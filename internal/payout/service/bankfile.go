package service

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	memberdomain "github.com/wellnest-hd/orgcomp/internal/member/domain"
	"github.com/wellnest-hd/orgcomp/internal/month"
	payoutdomain "github.com/wellnest-hd/orgcomp/internal/payout/domain"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

var (
	bankCodeRe      = regexp.MustCompile(`^\d{4}$`)
	branchCodeRe    = regexp.MustCompile(`^\d{3}$`)
	accountNumberRe = regexp.MustCompile(`^\d{1,7}$`)
)

// GenerateBankTransferFile renders the month's GENERATED records in the
// fixed transfer format: eight comma-separated columns, no header, one row
// per payout, Shift-JIS bytes. The fee bearer and EDI columns stay empty;
// the transfer fee is always borne by the company, never the recipient.
func (s *Service) GenerateBankTransferFile(ctx context.Context, target month.Month) (payoutdomain.BankTransferFile, error) {
	target, err := month.Parse(target.String())
	if err != nil {
		return payoutdomain.BankTransferFile{}, err
	}

	rows, err := s.payoutrepo.Find(ctx, &payoutdomain.PayoutRecord{
		TargetMonth: target.String(),
		Status:      payoutdomain.PayoutStatusGenerated,
	})
	if err != nil {
		return payoutdomain.BankTransferFile{}, err
	}
	if len(rows) == 0 {
		return payoutdomain.BankTransferFile{}, fmt.Errorf("%w: %s", payoutdomain.ErrNoGeneratedRecords, target)
	}

	// Member-number order keeps the output reproducible byte for byte.
	sort.Slice(rows, func(i, j int) bool { return rows[i].MemberNumber < rows[j].MemberNumber })

	var total int64
	var buf strings.Builder
	for _, row := range rows {
		total += row.NetAmount
		buf.WriteString(strings.Join([]string{
			row.BankCode,
			row.BranchCode,
			string(row.BankAccountType),
			row.BankAccountNumber,
			truncateName(row.BankAccountHolder, 30),
			fmt.Sprintf("%d", row.NetAmount),
			"", // fee bearer: company
			"", // EDI info
		}, ","))
		buf.WriteString("\n")
	}

	encoded, err := encodeShiftJIS([]byte(buf.String()))
	if err != nil {
		return payoutdomain.BankTransferFile{}, fmt.Errorf("encode transfer file: %w", err)
	}

	return payoutdomain.BankTransferFile{
		Name:          fmt.Sprintf("gmo_transfer_%s.csv", target),
		Content:       encoded,
		Rows:          len(rows),
		TotalAmount:   total,
		ConsignorCode: s.cfg.Plan.BankConsignorCode,
		ConsignorName: s.cfg.Plan.BankConsignorName,
	}, nil
}

// encodeShiftJIS converts the whole file at once so a conversion failure
// emits nothing rather than a partial file.
func encodeShiftJIS(utf8Bytes []byte) ([]byte, error) {
	var out bytes.Buffer
	writer := transform.NewWriter(&out, japanese.ShiftJIS.NewEncoder())
	if _, err := writer.Write(utf8Bytes); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func truncateName(name string, limit int) string {
	runes := []rune(name)
	if len(runes) <= limit {
		return name
	}
	return string(runes[:limit])
}

func validateBankDetails(member memberdomain.Member) string {
	switch {
	case !bankCodeRe.MatchString(member.BankCode):
		return "invalid_bank_code"
	case !branchCodeRe.MatchString(member.BranchCode):
		return "invalid_branch_code"
	case member.BankAccountType != memberdomain.BankAccountTypeOrdinary &&
		member.BankAccountType != memberdomain.BankAccountTypeChecking:
		return "invalid_account_type"
	case !accountNumberRe.MatchString(member.BankAccountNumber):
		return "invalid_account_number"
	case strings.TrimSpace(member.BankAccountHolder) == "":
		return "missing_account_holder"
	default:
		return ""
	}
}

func roundHalfUp(raw float64) int64 {
	return int64(math.Floor(raw + 0.5))
}
