package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	memberdomain "github.com/wellnest-hd/orgcomp/internal/member/domain"
	"github.com/wellnest-hd/orgcomp/internal/month"
	payoutdomain "github.com/wellnest-hd/orgcomp/internal/payout/domain"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

func (f *payoutFixture) seedPayoutRecord(t *testing.T, number string, net int64, status payoutdomain.PayoutStatus, holder string) {
	t.Helper()
	err := f.db.Create(&payoutdomain.PayoutRecord{
		ID:                f.node.Generate(),
		MemberID:          f.node.Generate(),
		TargetMonth:       "202401",
		GrossAmount:       net,
		NetAmount:         net,
		MemberNumber:      number,
		BankCode:          "0001",
		BranchCode:        "001",
		BankAccountType:   memberdomain.BankAccountTypeOrdinary,
		BankAccountNumber: "1234567",
		BankAccountHolder: holder,
		Status:            status,
		CreatedAt:         time.Now().UTC(),
		UpdatedAt:         time.Now().UTC(),
	}).Error
	if err != nil {
		t.Fatalf("seed payout record: %v", err)
	}
}

func TestGenerateBankTransferFileFormat(t *testing.T) {
	f := setupPayout(t)
	ctx := context.Background()

	// Seeded out of member-number order on purpose.
	f.seedPayoutRecord(t, "0000002", 8000, payoutdomain.PayoutStatusGenerated, "SUZUKI HANAKO")
	f.seedPayoutRecord(t, "0000001", 6555, payoutdomain.PayoutStatusGenerated, "YAMADA TARO")
	// Non-GENERATED rows never reach the file.
	f.seedPayoutRecord(t, "0000003", 100, payoutdomain.PayoutStatusPending, "SATO JIRO")

	file, err := f.svc.GenerateBankTransferFile(ctx, "202401")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if file.Name != "gmo_transfer_202401.csv" {
		t.Fatalf("unexpected file name %s", file.Name)
	}
	if file.Rows != 2 {
		t.Fatalf("expected 2 rows, got %d", file.Rows)
	}
	if file.TotalAmount != 14555 {
		t.Fatalf("expected total 14555, got %d", file.TotalAmount)
	}
	if file.ConsignorCode != "1234567890" || file.ConsignorName != "ウエルネスト" {
		t.Fatalf("consignor not carried from config: %q %q", file.ConsignorCode, file.ConsignorName)
	}

	// ASCII-only content is identical before and after Shift-JIS encoding, so
	// the bytes can be compared directly: eight columns, LF line endings, no
	// header, sorted by member number, trailing empty fee-bearer and EDI
	// columns.
	want := "0001,001,1,1234567,YAMADA TARO,6555,,\n" +
		"0001,001,1,1234567,SUZUKI HANAKO,8000,,\n"
	if !bytes.Equal(file.Content, []byte(want)) {
		t.Fatalf("unexpected content:\n%q\nwant:\n%q", file.Content, want)
	}
}

func TestGenerateBankTransferFileShiftJIS(t *testing.T) {
	f := setupPayout(t)
	ctx := context.Background()

	f.seedPayoutRecord(t, "0000001", 6555, payoutdomain.PayoutStatusGenerated, "ヤマダ タロウ")

	file, err := f.svc.GenerateBankTransferFile(ctx, "202401")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	// The katakana holder name must not be stored as UTF-8.
	utf8Row := "0001,001,1,1234567,ヤマダ タロウ,6555,,\n"
	if bytes.Equal(file.Content, []byte(utf8Row)) {
		t.Fatal("file content is UTF-8, expected Shift-JIS")
	}

	decoded, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), file.Content)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(decoded) != utf8Row {
		t.Fatalf("unexpected decoded row %q", decoded)
	}
}

func TestGenerateBankTransferFileEmptyMonth(t *testing.T) {
	f := setupPayout(t)

	_, err := f.svc.GenerateBankTransferFile(context.Background(), "202401")
	if !errors.Is(err, payoutdomain.ErrNoGeneratedRecords) {
		t.Fatalf("expected ErrNoGeneratedRecords, got %v", err)
	}
}

func TestGenerateBankTransferFileInvalidMonth(t *testing.T) {
	f := setupPayout(t)

	_, err := f.svc.GenerateBankTransferFile(context.Background(), "2024-01")
	if !errors.Is(err, month.ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
}
