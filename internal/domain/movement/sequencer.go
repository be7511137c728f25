package movement

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hirosato/guarded-funds/internal/common/utils"
	"github.com/hirosato/guarded-funds/internal/domain/account"
	"github.com/hirosato/guarded-funds/internal/domain/errors"
	"github.com/hirosato/guarded-funds/internal/domain/ledger"
	"github.com/hirosato/guarded-funds/internal/domain/verification"
	"github.com/hirosato/guarded-funds/pkg/validator"
)

// User-facing messages
const (
	msgRequiredFields   = "Please fill in all required fields"
	msgInvalidAmount    = "Please enter a valid amount"
	msgAmountPositive   = "Amount must be greater than 0"
	msgInsufficient     = "Insufficient balance"
	msgBankDetails      = "Please fill in all bank details"
	msgCardDetails      = "Please fill in all card details"
	msgMobileNotReady   = "Mobile wallet payments are not available yet"
	msgCodeRequired     = "Please enter your %s code"
	msgCodeMismatch     = "Invalid %s code. Please contact support for assistance."
	msgLookupFailed     = "We could not verify your %s code right now. Please try again later."
	msgAlreadySubmitted = "This operation has already been submitted"
)

// CodeVerifier checks a confirmation code for a user
type CodeVerifier interface {
	Verify(ctx context.Context, userID string, stage verification.Stage, code string) (verification.Result, error)
}

// Submitter records a finished operation
type Submitter interface {
	Submit(ctx context.Context, draft *ledger.Draft) (*ledger.Entry, error)
}

// Deps are the collaborators a Sequencer needs
type Deps struct {
	Fees      FeePolicy
	Verifier  CodeVerifier
	Submitter Submitter
	Validator validator.Validator
}

// Sequencer is the linear wizard for one operation. It starts at step 1,
// only moves forward through Advance and never persists anything before
// the terminal advance.
type Sequencer struct {
	userID   string
	op       *PendingOperation
	snapshot account.Snapshot
	deps     Deps

	step   Step
	amount decimal.Decimal
	quote  *Quote

	secondaryVerified bool
	tertiaryVerified  bool

	entry *ledger.Entry
}

// NewSequencer creates a sequencer at step 1 for the operation. The balance
// snapshot is the one read when the flow started.
func NewSequencer(userID string, op *PendingOperation, snapshot account.Snapshot, deps Deps) *Sequencer {
	return &Sequencer{
		userID:   userID,
		op:       op,
		snapshot: snapshot,
		deps:     deps,
		step:     StepDetails,
	}
}

// Step returns the current cursor
func (s *Sequencer) Step() Step {
	return s.step
}

// LastStep returns the terminal step for the operation kind
func (s *Sequencer) LastStep() Step {
	return LastStep(s.op.Kind)
}

// Done reports whether the operation was submitted
func (s *Sequencer) Done() bool {
	return s.entry != nil
}

// Entry returns the submitted entry, or nil
func (s *Sequencer) Entry() *ledger.Entry {
	return s.entry
}

// Quote returns the fee breakdown once step 1 has passed
func (s *Sequencer) Quote() *Quote {
	return s.quote
}

// Operation returns the operation being edited
func (s *Sequencer) Operation() *PendingOperation {
	return s.op
}

// Advance validates the current step and moves to the next one. On error
// the cursor does not move. The terminal advance submits the operation
// instead of moving.
func (s *Sequencer) Advance(ctx context.Context) error {
	if s.Done() {
		return errors.NewConflictError(msgAlreadySubmitted)
	}

	var err error
	switch s.step {
	case StepDetails:
		err = s.validateDetails()
	case StepReview:
		err = s.validateReview()
	case StepSecondaryCode:
		s.secondaryVerified, err = s.checkCode(ctx, verification.Secondary, s.op.SecondaryCode)
	case StepTertiaryCode:
		s.tertiaryVerified, err = s.checkCode(ctx, verification.Tertiary, s.op.TertiaryCode)
	}
	if err != nil {
		return err
	}

	if s.step >= s.LastStep() {
		return s.submit(ctx)
	}
	s.step++
	return nil
}

// Retreat moves the cursor back one step without validating. Entered data is kept.
func (s *Sequencer) Retreat() {
	if s.Done() {
		return
	}
	s.step = Retreat(s.step)
	// a code step must be passed again once the cursor is back on it
	if s.step <= StepSecondaryCode {
		s.secondaryVerified = false
	}
	s.tertiaryVerified = false
}

// Retreat returns the step before step, clamped at the first step
func Retreat(step Step) Step {
	if step <= StepDetails {
		return StepDetails
	}
	return step - 1
}

func (s *Sequencer) validateDetails() error {
	op := s.op
	if !op.Kind.Valid() {
		return errors.NewValidationError(msgRequiredFields)
	}
	if op.AccountType == "" {
		op.AccountType = account.Checking
	}
	if !op.AccountType.Valid() {
		return errors.NewValidationError(msgRequiredFields)
	}

	raw := strings.TrimSpace(string(op.Amount))
	switch op.Kind {
	case ledger.Transfer:
		if raw == "" || strings.TrimSpace(op.Recipient) == "" {
			return errors.NewValidationError(msgRequiredFields)
		}
	default:
		if raw == "" || op.Method == "" {
			return errors.NewValidationError(msgRequiredFields)
		}
	}

	amount, err := utils.ParseAmount(raw)
	if err != nil {
		return errors.NewValidationError(msgInvalidAmount)
	}
	if !amount.IsPositive() {
		return errors.NewValidationError(msgAmountPositive)
	}

	min := s.deps.Fees.Minimum(op.Kind)
	if amount.LessThan(min) {
		return errors.NewValidationError(fmt.Sprintf("Minimum %s amount is $%s", op.Kind, min.String()))
	}

	if op.Kind == ledger.Transfer {
		if err := s.validateRecipient(); err != nil {
			return err
		}
	} else if err := validateMethod(op.Method); err != nil {
		return err
	}

	quote := s.deps.Fees.Quote(op.Kind, op.TransferType, amount)
	if op.Kind.IsDebit() && quote.Total.GreaterThan(s.snapshot.Available(op.AccountType)) {
		return errors.NewInsufficientBalanceError(msgInsufficient)
	}

	s.amount = amount
	s.quote = &quote
	op.Fee = quote.Fee
	op.Total = quote.Total
	return nil
}

func (s *Sequencer) validateRecipient() error {
	op := s.op
	if op.RecipientType == "" {
		op.RecipientType = RecipientEmail
	}
	if op.TransferType == "" {
		op.TransferType = TransferStandard
	}
	if op.TransferType != TransferStandard && op.TransferType != TransferInstant {
		return errors.NewValidationError(fmt.Sprintf("Unknown transfer type %q", op.TransferType))
	}

	var tag string
	switch op.RecipientType {
	case RecipientEmail:
		tag = "email"
	case RecipientPhone:
		tag = "phone"
	case RecipientAccount:
		tag = "account_number"
	default:
		return errors.NewValidationError(fmt.Sprintf("Unknown recipient type %q", op.RecipientType))
	}

	if s.deps.Validator == nil {
		return nil
	}
	if err := s.deps.Validator.Var(strings.TrimSpace(op.Recipient), tag); err != nil {
		return errors.NewValidationError(fmt.Sprintf("Please enter a valid recipient %s", recipientLabel(op.RecipientType)))
	}
	return nil
}

func recipientLabel(recipientType string) string {
	switch recipientType {
	case RecipientPhone:
		return "phone number"
	case RecipientAccount:
		return "account number"
	default:
		return "email address"
	}
}

func validateMethod(method string) error {
	switch method {
	case MethodBank, MethodCard, MethodMobile:
		return nil
	}
	return errors.NewValidationError(fmt.Sprintf("Unknown payment method %q", method))
}

func (s *Sequencer) validateReview() error {
	op := s.op
	if op.Kind == ledger.Transfer {
		return nil
	}

	switch op.Method {
	case MethodBank:
		b := op.Bank
		if b == nil || blank(b.AccountNumber) || blank(b.RoutingNumber) || blank(b.AccountName) {
			return errors.NewValidationError(msgBankDetails)
		}
	case MethodCard:
		c := op.Card
		if c == nil || blank(c.Number) || blank(c.Expiry) || blank(c.CVV) || blank(c.Name) {
			return errors.NewValidationError(msgCardDetails)
		}
	case MethodMobile:
		return errors.NewValidationError(msgMobileNotReady)
	default:
		return validateMethod(op.Method)
	}
	return nil
}

func (s *Sequencer) checkCode(ctx context.Context, stage verification.Stage, code string) (bool, error) {
	if strings.TrimSpace(code) == "" {
		return false, errors.NewValidationError(fmt.Sprintf(msgCodeRequired, stage.Label()))
	}

	result, err := s.deps.Verifier.Verify(ctx, s.userID, stage, code)
	if err != nil {
		return false, err
	}

	switch result {
	case verification.Match:
		return true, nil
	case verification.LookupUnavailable:
		return false, errors.NewLookupUnavailableError(fmt.Sprintf(msgLookupFailed, stage.Label()), nil)
	default:
		return false, errors.NewCodeMismatchError(fmt.Sprintf(msgCodeMismatch, stage.Label()))
	}
}

func (s *Sequencer) submit(ctx context.Context) error {
	op := s.op
	draft := &ledger.Draft{
		UserID:            s.userID,
		Kind:              op.Kind,
		Amount:            s.amount,
		Fee:               s.quote.Fee,
		Total:             s.quote.Total,
		Recipient:         strings.TrimSpace(op.Recipient),
		RecipientType:     op.RecipientType,
		TransferType:      op.TransferType,
		Method:            op.Method,
		AccountType:       string(op.AccountType),
		Description:       op.Description,
		SecondaryVerified: s.secondaryVerified,
		TertiaryVerified:  s.tertiaryVerified,
	}
	if op.Kind == ledger.Transfer {
		draft.Method = ""
	} else {
		draft.Recipient, draft.RecipientType, draft.TransferType = "", "", ""
		switch op.Method {
		case MethodBank:
			draft.Bank = op.Bank
		case MethodCard:
			draft.Card = op.Card
		}
	}
	if op.Description == "" {
		draft.Description = defaultDescription(op)
	}

	entry, err := s.deps.Submitter.Submit(ctx, draft)
	if err != nil {
		return err
	}
	s.entry = entry
	return nil
}

func defaultDescription(op *PendingOperation) string {
	switch op.Kind {
	case ledger.Transfer:
		return fmt.Sprintf("Transfer to %s", strings.TrimSpace(op.Recipient))
	case ledger.Withdrawal:
		return fmt.Sprintf("Withdrawal via %s", op.Method)
	default:
		return fmt.Sprintf("Deposit via %s", op.Method)
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
