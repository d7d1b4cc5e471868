// internal/application/usecase/features_test.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"b7pizza/internal/adapters/out/tokenstore"
	"b7pizza/internal/application/catalog"
	"b7pizza/internal/application/pricing"
	authdom "b7pizza/internal/domain/auth"
	cartdom "b7pizza/internal/domain/cart"
	productdom "b7pizza/internal/domain/product"
)

type storefrontTestContext struct {
	gw      *fakeGateway
	session *authdom.Session
	flow    *AuthFlowUsecase
	last    AuthFlowSnapshot
	err     error

	ledger *cartdom.Ledger
	cache  *catalog.Cache
	cart   *CartUsecase
}

func (c *storefrontTestContext) reset() error {
	c.gw = newFakeGateway()
	session, err := authdom.NewSession("feature-session", tokenstore.NewMemory(0))
	if err != nil {
		return err
	}
	c.session = session
	c.flow, err = NewAuthFlowUsecase(c.gw, session, nil)
	if err != nil {
		return err
	}
	c.last = c.flow.Snapshot()
	c.err = nil

	c.ledger = cartdom.NewLedger()
	c.cache = catalog.NewCache()
	c.cart = NewCartUsecase(c.ledger, pricing.NewWatcher(pricing.NewDefaultEngine(), c.ledger, c.cache), session)
	return nil
}

// ------------------------------------------------------------
// Auth flow steps
// ------------------------------------------------------------

func (c *storefrontTestContext) theBackendKnowsTheEmail(email string) error {
	c.gw.existing[email] = true
	return nil
}

func (c *storefrontTestContext) theLoginDialogIsOpen() error {
	c.session.SetDialogOpen(true)
	return nil
}

func (c *storefrontTestContext) theBackendAnswersSignUpWithToken(token string) error {
	c.gw.signUpToken = token
	return nil
}

func (c *storefrontTestContext) theBackendRefusesSignInWith(msg string) error {
	c.gw.signInErr = &authdom.BusinessError{Message: msg}
	return nil
}

func (c *storefrontTestContext) iSubmitTheEmail(email string) error {
	c.last, c.err = c.flow.SubmitEmail(context.Background(), email)
	return c.tolerateValidation()
}

func (c *storefrontTestContext) iSignUpAsWithPasswordConfirmedBy(name, pw, confirm string) error {
	c.last, c.err = c.flow.SubmitSignUp(context.Background(), SignUpForm{
		Name:            name,
		Email:           c.last.EmailDraft,
		Password:        pw,
		PasswordConfirm: confirm,
	})
	return c.tolerateValidation()
}

func (c *storefrontTestContext) iSignInWithPassword(pw string) error {
	c.last, c.err = c.flow.SubmitSignIn(context.Background(), SignInForm{
		Email:    c.last.EmailDraft,
		Password: pw,
	})
	return c.tolerateValidation()
}

func (c *storefrontTestContext) iGoBack() error {
	c.last, c.err = c.flow.Back()
	return c.err
}

// validation failures are an expected outcome the Then steps inspect
func (c *storefrontTestContext) tolerateValidation() error {
	if c.err != nil && !errors.Is(c.err, ErrValidation) {
		return c.err
	}
	return nil
}

func (c *storefrontTestContext) theStepIs(step string) error {
	if got := string(c.flow.Snapshot().Step); got != step {
		return fmt.Errorf("expected step %q, got %q", step, got)
	}
	return nil
}

func (c *storefrontTestContext) theEmailDraftIs(email string) error {
	if got := c.flow.Snapshot().EmailDraft; got != email {
		return fmt.Errorf("expected email draft %q, got %q", email, got)
	}
	return nil
}

func (c *storefrontTestContext) theFieldHasTheError(field, msg string) error {
	for _, m := range c.last.FieldErrors[field] {
		if m == msg {
			return nil
		}
	}
	return fmt.Errorf("expected %q on %q, got %v", msg, field, c.last.FieldErrors)
}

func (c *storefrontTestContext) onlyTheFieldHasErrors(field string) error {
	fields := c.last.FieldErrors.Fields()
	if len(fields) != 1 || fields[0] != field {
		return fmt.Errorf("expected errors only on %q, got %v", field, c.last.FieldErrors)
	}
	return nil
}

func (c *storefrontTestContext) theBackendReceivedRequests(n int) error {
	if got := c.gw.TotalCalls(); got != n {
		return fmt.Errorf("expected %d backend requests, got %d", n, got)
	}
	return nil
}

func (c *storefrontTestContext) theSessionTokenIs(token string) error {
	got, ok := c.session.Token()
	if !ok || got != token {
		return fmt.Errorf("expected token %q, got %q (present=%v)", token, got, ok)
	}
	return nil
}

func (c *storefrontTestContext) theLoginDialogIsClosed() error {
	if c.session.DialogOpen() {
		return errors.New("expected the login dialog to be closed")
	}
	return nil
}

func (c *storefrontTestContext) theNoticeIs(msg string) error {
	if c.last.Notice != msg {
		return fmt.Errorf("expected notice %q, got %q", msg, c.last.Notice)
	}
	return nil
}

func (c *storefrontTestContext) theSessionIsNotAuthenticated() error {
	if c.session.Authenticated() {
		return errors.New("expected an unauthenticated session")
	}
	return nil
}

// ------------------------------------------------------------
// Cart steps
// ------------------------------------------------------------

func (c *storefrontTestContext) theCatalogHas(table *godog.Table) error {
	if len(table.Rows) < 2 {
		return errors.New("catalog table needs a header and at least one row")
	}
	var list []productdom.Product
	for _, row := range table.Rows[1:] {
		if len(row.Cells) != 3 {
			return fmt.Errorf("expected 3 cells, got %d", len(row.Cells))
		}
		price, err := decimal.NewFromString(row.Cells[2].Value)
		if err != nil {
			return err
		}
		list = append(list, productdom.Product{ID: row.Cells[0].Value, Name: row.Cells[1].Value, Price: price})
	}
	c.cache.SetProducts(list)
	return nil
}

func (c *storefrontTestContext) iAddOf(delta int, id string) error {
	_, err := c.cart.AddItem(id, delta)
	return err
}

func (c *storefrontTestContext) iRemove(id string) error {
	_, err := c.cart.RemoveItem(id)
	return err
}

func (c *storefrontTestContext) theQuantityOfIs(id string, n int) error {
	got, ok := c.ledger.Quantity(id)
	if !ok || got != n {
		return fmt.Errorf("expected quantity %d for %q, got %d (present=%v)", n, id, got, ok)
	}
	return nil
}

func (c *storefrontTestContext) isNotInTheCart(id string) error {
	if _, ok := c.ledger.Quantity(id); ok {
		return fmt.Errorf("expected %q to be absent", id)
	}
	return nil
}

func (c *storefrontTestContext) theSubtotalIs(text string) error {
	if got := c.cart.View().SubtotalText; got != text {
		return fmt.Errorf("expected subtotal %q, got %q", text, got)
	}
	return nil
}

func (c *storefrontTestContext) theTotalIs(text string) error {
	if got := c.cart.View().TotalText; got != text {
		return fmt.Errorf("expected total %q, got %q", text, got)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &storefrontTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		return ctx, tc.reset()
	})

	// Given steps
	ctx.Step(`^the backend knows the email "([^"]*)"$`, tc.theBackendKnowsTheEmail)
	ctx.Step(`^the login dialog is open$`, tc.theLoginDialogIsOpen)
	ctx.Step(`^the backend answers sign-up with token "([^"]*)"$`, tc.theBackendAnswersSignUpWithToken)
	ctx.Step(`^the backend refuses sign-in with "([^"]*)"$`, tc.theBackendRefusesSignInWith)
	ctx.Step(`^the catalog has:$`, tc.theCatalogHas)

	// When steps
	ctx.Step(`^I submit the email "([^"]*)"$`, tc.iSubmitTheEmail)
	ctx.Step(`^I sign up as "([^"]*)" with password "([^"]*)" confirmed by "([^"]*)"$`, tc.iSignUpAsWithPasswordConfirmedBy)
	ctx.Step(`^I sign in with password "([^"]*)"$`, tc.iSignInWithPassword)
	ctx.Step(`^I go back$`, tc.iGoBack)
	ctx.Step(`^I add (-?\d+) of "([^"]*)"$`, tc.iAddOf)
	ctx.Step(`^I remove "([^"]*)"$`, tc.iRemove)

	// Then steps
	ctx.Step(`^the step is "([^"]*)"$`, tc.theStepIs)
	ctx.Step(`^the email draft is "([^"]*)"$`, tc.theEmailDraftIs)
	ctx.Step(`^the field "([^"]*)" has the error "([^"]*)"$`, tc.theFieldHasTheError)
	ctx.Step(`^only the field "([^"]*)" has errors$`, tc.onlyTheFieldHasErrors)
	ctx.Step(`^the backend received (\d+) requests$`, tc.theBackendReceivedRequests)
	ctx.Step(`^the session token is "([^"]*)"$`, tc.theSessionTokenIs)
	ctx.Step(`^the login dialog is closed$`, tc.theLoginDialogIsClosed)
	ctx.Step(`^the notice is "([^"]*)"$`, tc.theNoticeIs)
	ctx.Step(`^the session is not authenticated$`, tc.theSessionIsNotAuthenticated)
	ctx.Step(`^the quantity of "([^"]*)" is (\d+)$`, tc.theQuantityOfIs)
	ctx.Step(`^"([^"]*)" is not in the cart$`, tc.isNotInTheCart)
	ctx.Step(`^the subtotal is "([^"]*)"$`, tc.theSubtotalIs)
	ctx.Step(`^the total is "([^"]*)"$`, tc.theTotalIs)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
