package ap

import (
	"context"
	"errors"
	"testing"
	"time"

	"kuasap-backend/lib/querycache"
	"kuasap-backend/lib/scrapers/kuasap"
	"kuasap-backend/lib/scrapers/kuasap/kuasaptest"
	"kuasap-backend/lib/sessions"
	"kuasap-backend/lib/telemetry"
	"kuasap-backend/lib/timezone"

	"github.com/google/go-cmp/cmp"
	"github.com/mazen160/go-random"
	"github.com/stretchr/testify/require"
)

type account struct {
	username string
	password string
}

func randomAccount(t *testing.T) account {
	username, err := random.String(10)
	require.NoError(t, err)
	password, err := random.String(16)
	require.NoError(t, err)
	return account{username: username, password: password}
}

type fixture struct {
	portal   *kuasaptest.Portal
	registry *sessions.Registry
	service  *Service
	accounts []account
}

func setup(t *testing.T, opts Options, accounts ...account) fixture {
	t.Helper()

	cleanup := telemetry.SetupForTesting(t, "test:services/ap")
	t.Cleanup(cleanup)

	credentials := make(map[string]string, len(accounts))
	for _, a := range accounts {
		credentials[a.username] = a.password
	}
	portal := kuasaptest.NewPortal(credentials)
	t.Cleanup(portal.Close)

	opts.Client.BaseUrl = portal.URL()
	registry := sessions.NewRegistry()
	service := NewService(registry, querycache.New[[]byte](querycache.Options{}), opts)
	return fixture{
		portal:   portal,
		registry: registry,
		service:  service,
		accounts: accounts,
	}
}

func TestLogin(t *testing.T) {
	user := randomAccount(t)
	f := setup(t, Options{}, user)
	ctx := context.Background()

	token, err := f.service.Login(ctx, user.username, user.password)
	require.NoError(t, err)
	require.Len(t, token, sessions.TokenLength)
	require.True(t, f.service.IsValid(token))

	session, err := f.service.Session(token)
	require.NoError(t, err)
	require.Equal(t, user.username, session.Username)

	second, err := f.service.Login(ctx, user.username, user.password)
	require.NoError(t, err)
	require.NotEqual(t, token, second)
}

func TestLoginRejected(t *testing.T) {
	user := randomAccount(t)
	f := setup(t, Options{}, user)
	ctx := context.Background()

	_, err := f.service.Login(ctx, user.username, "not-"+user.password)
	require.ErrorIs(t, err, kuasap.ErrAuthFailed)
	require.Equal(t, 0, f.registry.Len())

	guess := sessions.Token(user.username, time.Now().UnixNano())
	_, err = f.service.Query(ctx, guess, "ag222", nil)
	require.ErrorIs(t, err, sessions.ErrUnknownToken)
	require.False(t, f.service.IsValid(guess))
}

func TestLoginTransportError(t *testing.T) {
	user := randomAccount(t)
	f := setup(t, Options{}, user)

	f.portal.SetStatus(503)
	_, err := f.service.Login(context.Background(), user.username, user.password)

	var transportErr *kuasap.TransportError
	require.True(t, errors.As(err, &transportErr))
	require.Equal(t, 0, f.registry.Len())
}

func TestQueryCached(t *testing.T) {
	user := randomAccount(t)
	f := setup(t, Options{}, user)
	ctx := context.Background()

	token, err := f.service.Login(ctx, user.username, user.password)
	require.NoError(t, err)

	args := map[string]string{"arg01": "106", "arg02": "1"}
	first, err := f.service.Query(ctx, token, "ag222", args)
	require.NoError(t, err)
	second, err := f.service.Query(ctx, token, "ag222", args)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, f.portal.QueryCount("ag222"))

	_, err = f.service.Query(ctx, token, "ag222", map[string]string{"arg01": "106", "arg02": "2"})
	require.NoError(t, err)
	require.Equal(t, 2, f.portal.QueryCount("ag222"))
}

func TestQueryCachedPerUser(t *testing.T) {
	alice := randomAccount(t)
	bob := randomAccount(t)
	f := setup(t, Options{}, alice, bob)
	ctx := context.Background()

	aliceToken, err := f.service.Login(ctx, alice.username, alice.password)
	require.NoError(t, err)
	bobToken, err := f.service.Login(ctx, bob.username, bob.password)
	require.NoError(t, err)

	args := map[string]string{"arg01": "106", "arg02": "1"}
	alicePayload, err := f.service.Query(ctx, aliceToken, "ag008", args)
	require.NoError(t, err)
	bobPayload, err := f.service.Query(ctx, bobToken, "ag008", args)
	require.NoError(t, err)

	require.NotEqual(t, alicePayload, bobPayload)
	require.Contains(t, string(alicePayload), alice.username)
	require.Contains(t, string(bobPayload), bob.username)
	require.Equal(t, 2, f.portal.QueryCount("ag008"))
}

func TestQueryInvalidId(t *testing.T) {
	user := randomAccount(t)
	f := setup(t, Options{}, user)
	ctx := context.Background()

	token, err := f.service.Login(ctx, user.username, user.password)
	require.NoError(t, err)

	_, err = f.service.Query(ctx, token, "zz999", nil)
	require.ErrorIs(t, err, kuasap.ErrInvalidQueryId)
	require.Equal(t, 0, f.portal.PrimeCount())
}

func TestLogout(t *testing.T) {
	user := randomAccount(t)
	f := setup(t, Options{}, user)
	ctx := context.Background()

	token, err := f.service.Login(ctx, user.username, user.password)
	require.NoError(t, err)

	require.True(t, f.service.Logout(token))
	require.False(t, f.service.Logout(token))
	require.False(t, f.service.IsValid(token))

	_, err = f.service.Query(ctx, token, "ag222", nil)
	require.ErrorIs(t, err, sessions.ErrUnknownToken)
}

func TestEvictIdle(t *testing.T) {
	user := randomAccount(t)
	f := setup(t, Options{IdleTimeout: time.Minute}, user)
	ctx := context.Background()

	token, err := f.service.Login(ctx, user.username, user.password)
	require.NoError(t, err)

	require.Equal(t, 0, f.service.evictIdle(time.Now()))
	require.True(t, f.service.IsValid(token))

	require.Equal(t, 1, f.service.evictIdle(time.Now().Add(time.Minute+time.Second)))
	require.False(t, f.service.IsValid(token))
}

func TestEvictIdleCountsCacheHits(t *testing.T) {
	user := randomAccount(t)
	f := setup(t, Options{IdleTimeout: time.Second}, user)
	ctx := context.Background()

	token, err := f.service.Login(ctx, user.username, user.password)
	require.NoError(t, err)
	args := map[string]string{"arg01": "106", "arg02": "1"}
	_, err = f.service.Query(ctx, token, "ag222", args)
	require.NoError(t, err)

	time.Sleep(600 * time.Millisecond)
	_, err = f.service.Query(ctx, token, "ag222", args)
	require.NoError(t, err)
	require.Equal(t, 1, f.portal.QueryCount("ag222"))

	// the last portal response is over a second old by then, the cache hit is not
	require.Equal(t, 0, f.service.evictIdle(time.Now().Add(600*time.Millisecond)))
	require.True(t, f.service.IsValid(token))

	_, err = f.service.Session(token)
	require.NoError(t, err)
	require.Equal(t, 1, f.service.evictIdle(time.Now().Add(time.Second+time.Millisecond)))
	require.False(t, f.service.IsValid(token))
}

func TestStartInvalidSchedule(t *testing.T) {
	f := setup(t, Options{EvictSchedule: "not a schedule"})
	require.Error(t, f.service.Start(context.Background()))

	f = setup(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, f.service.Start(ctx))
}

const semesterPage = `<html><body><form><select name="yms_yms">
<option value="106,1" selected>106學年度第1學期</option>
<option value="105,2">105學年度第2學期</option>
<option value="105,4">105學年度暑修</option>
<option value="">請選擇</option>
</select></form></body></html>`

func TestSemesters(t *testing.T) {
	lookup := randomAccount(t)
	f := setup(t, Options{
		SemesterAccount: Credentials{Username: lookup.username, Password: lookup.password},
	}, lookup)
	f.portal.SetPayload(DefaultSemesterQuery, semesterPage)
	ctx := context.Background()

	list, err := f.service.Semesters(ctx)
	require.NoError(t, err)

	expect := SemesterList{
		Semesters: []Semester{
			{Value: "106,1", Text: "106學年度第1學期", Selected: true},
			{Value: "105,2", Text: "105學年度第2學期"},
			{Value: "105,4", Text: "105學年度暑修"},
		},
		Default: Semester{Value: "106,1", Text: "106學年度第1學期", Selected: true},
	}
	diff := cmp.Diff(expect, list)
	if diff != "" {
		t.Fatal(diff)
	}

	_, err = f.service.Semesters(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, f.portal.LoginCount())
	require.Equal(t, 1, f.portal.QueryCount(DefaultSemesterQuery))
}

func TestSemestersFromCalendar(t *testing.T) {
	f := setup(t, Options{SemesterYears: 2})
	f.service.now = func() time.Time {
		return time.Date(2017, time.September, 1, 0, 0, 0, 0, timezone.Location)
	}

	list, err := f.service.Semesters(context.Background())
	require.NoError(t, err)

	expect := SemesterList{
		Semesters: []Semester{
			{Value: "106,1", Text: "106學年度第1學期", Selected: true},
			{Value: "105,2", Text: "105學年度第2學期"},
			{Value: "105,1", Text: "105學年度第1學期"},
		},
		Default: Semester{Value: "106,1", Text: "106學年度第1學期", Selected: true},
	}
	diff := cmp.Diff(expect, list)
	if diff != "" {
		t.Fatal(diff)
	}
	require.Equal(t, 0, f.portal.LoginCount())
}

func TestParseSemestersEmpty(t *testing.T) {
	_, err := parseSemesters(nil)
	require.ErrorIs(t, err, kuasap.ErrMalformedResponse)
}
