//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
)

// RegisterSteps registers all step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	ctx.Step(`^didgate is running$`, tc.didgateIsRunning)

	// Subjects
	ctx.Step(`^a subject "([^"]*)" aged (\d+) is registered$`, tc.registerSubject)
	ctx.Step(`^I register a subject "([^"]*)" aged (\d+)$`, tc.registerSubject)
	ctx.Step(`^I register a subject with no claims$`, tc.registerWithoutClaims)
	ctx.Step(`^I resolve the subject's DID$`, tc.resolveSubject)
	ctx.Step(`^I fetch the subject's credential$`, tc.fetchCredential)
	ctx.Step(`^I resolve the DID "([^"]*)"$`, tc.resolveDID)

	// Organizations
	ctx.Step(`^a registered organization with a bearer token$`, tc.registeredOrganization)
	ctx.Step(`^I request a token with a wrong secret$`, tc.tokenWithWrongSecret)

	// Grants
	ctx.Step(`^the subject authorizes the organization for "([^"]*)"$`, tc.authorize)
	ctx.Step(`^the subject revokes the organization$`, tc.revoke)
	ctx.Step(`^I list the subject's grants$`, tc.listGrants)

	// Gateway
	ctx.Step(`^the organization reads the subject's attributes$`, tc.readAttributes)
	ctx.Step(`^the organization reads the subject's attributes without a token$`, tc.readAttributesAnonymously)
	ctx.Step(`^the organization requests access to "([^"]*)"$`, tc.requestAccess)
	ctx.Step(`^the organization reads its access log$`, tc.readAccessLog)

	// Assertions
	ctx.Step(`^the response status should be (\d+)$`, tc.responseStatusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, tc.responseFieldShouldEqual)
	ctx.Step(`^the response field "([^"]*)" should be absent$`, tc.responseFieldShouldBeAbsent)
	ctx.Step(`^the response should contain "([^"]*)"$`, tc.responseShouldContain)
}

func (tc *TestContext) didgateIsRunning(context.Context) error {
	if err := tc.GET("/health/live", nil); err != nil {
		return err
	}
	return tc.expectStatus(200)
}

func (tc *TestContext) subjectPath() string {
	return url.PathEscape(tc.SubjectDID)
}

func (tc *TestContext) registerSubject(_ context.Context, name string, age int) error {
	err := tc.POST("/did/register", map[string]any{
		"claims": map[string]any{"name": name, "age": age},
	})
	if err != nil {
		return err
	}
	if tc.LastResponse.StatusCode != 201 {
		return nil
	}
	tc.SubjectDID, err = tc.StringField("did")
	return err
}

func (tc *TestContext) registerWithoutClaims(context.Context) error {
	return tc.POST("/did/register", map[string]any{"claims": map[string]any{}})
}

func (tc *TestContext) resolveSubject(context.Context) error {
	return tc.GET("/did/"+tc.subjectPath(), nil)
}

func (tc *TestContext) resolveDID(_ context.Context, did string) error {
	return tc.GET("/did/"+url.PathEscape(did), nil)
}

func (tc *TestContext) fetchCredential(context.Context) error {
	return tc.GET("/credentials/"+tc.subjectPath(), nil)
}

func (tc *TestContext) registeredOrganization(context.Context) error {
	org := "Org-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	if err := tc.POST("/organizations", map[string]any{"name": org}); err != nil {
		return err
	}
	if err := tc.expectStatus(201); err != nil {
		return err
	}
	secret, err := tc.StringField("secret")
	if err != nil {
		return err
	}
	tc.Organization, tc.OrgSecret = org, secret

	if err := tc.POST("/organizations/token", map[string]any{"orgId": org, "secret": secret}); err != nil {
		return err
	}
	if err := tc.expectStatus(200); err != nil {
		return err
	}
	tc.AccessToken, err = tc.StringField("access_token")
	return err
}

func (tc *TestContext) tokenWithWrongSecret(context.Context) error {
	return tc.POST("/organizations/token", map[string]any{"orgId": tc.Organization, "secret": "not-the-secret"})
}

func (tc *TestContext) authorize(_ context.Context, attrs string) error {
	return tc.POST("/did/authorize", map[string]any{
		"did":        tc.SubjectDID,
		"orgId":      tc.Organization,
		"attributes": strings.Split(attrs, ","),
	})
}

func (tc *TestContext) revoke(context.Context) error {
	return tc.POST("/did/revoke", map[string]any{"did": tc.SubjectDID, "orgId": tc.Organization})
}

func (tc *TestContext) listGrants(context.Context) error {
	return tc.GET("/did/"+tc.subjectPath()+"/grants", nil)
}

func (tc *TestContext) readAttributes(context.Context) error {
	return tc.GET("/gateway/subjects/"+tc.subjectPath(), tc.bearer())
}

func (tc *TestContext) readAttributesAnonymously(context.Context) error {
	return tc.GET("/gateway/subjects/"+tc.subjectPath(), nil)
}

func (tc *TestContext) requestAccess(_ context.Context, attrs string) error {
	return tc.do("POST", "/gateway/access-requests", map[string]any{
		"did":        tc.SubjectDID,
		"attributes": strings.Split(attrs, ","),
	}, tc.bearer())
}

func (tc *TestContext) readAccessLog(context.Context) error {
	return tc.GET("/gateway/access-log", tc.bearer())
}

func (tc *TestContext) expectStatus(want int) error {
	if tc.LastResponse == nil {
		return fmt.Errorf("no response recorded")
	}
	if tc.LastResponse.StatusCode != want {
		return fmt.Errorf("expected status %d but got %d: %s", want, tc.LastResponse.StatusCode, tc.LastResponseBody)
	}
	return nil
}

func (tc *TestContext) responseStatusShouldBe(_ context.Context, want int) error {
	return tc.expectStatus(want)
}

func (tc *TestContext) responseFieldShouldEqual(_ context.Context, field, want string) error {
	got, err := tc.Field(field)
	if err != nil {
		return err
	}
	if f, ok := got.(float64); ok {
		got = strconv.FormatFloat(f, 'f', -1, 64)
	}
	if fmt.Sprint(got) != want {
		return fmt.Errorf("field %s: expected %s but got %v", field, want, got)
	}
	return nil
}

func (tc *TestContext) responseFieldShouldBeAbsent(_ context.Context, field string) error {
	if _, err := tc.Field(field); err == nil {
		return fmt.Errorf("field %s should be absent: %s", field, tc.LastResponseBody)
	}
	return nil
}

func (tc *TestContext) responseShouldContain(_ context.Context, text string) error {
	if !strings.Contains(string(tc.LastResponseBody), text) {
		return fmt.Errorf("response does not contain %q\nResponse: %s", text, tc.LastResponseBody)
	}
	return nil
}
