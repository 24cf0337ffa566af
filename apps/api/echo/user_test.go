package echoapi

import (
	"context"
	"net/http"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mentora/core/user"
	emailsvc "github.com/trezcool/mentora/services/email"
	"github.com/trezcool/mentora/testutil"
)

func Test_userApi_register(t *testing.T) {
	newUser := func(email, pwd string) []byte {
		return marshallObj(t, user.NewUser{
			FirstName:       "Amaka",
			LastName:        "Eze",
			Email:           email,
			HomeCountry:     "Nigeria",
			PrimaryGoal:     "PLAB",
			Password:        pwd,
			PasswordConfirm: pwd,
			AgreeToTerms:    true,
		})
	}

	t.Run("created", func(t *testing.T) {
		rec := do(http.MethodPost, "/v1/users/register", "", newUser(" Amaka.Reg@Example.com ", testPassword))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp RegisterResponse
		unmarshall(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.NotEmpty(t, resp.User.ID)
		assert.Equal(t, "amaka.reg@example.com", resp.User.Email)
		assert.Equal(t, []string{user.RoleUser}, resp.User.Roles)
		assert.True(t, resp.User.IsActive)

		me := do(http.MethodGet, "/v1/users/me", resp.Token)
		require.Equal(t, http.StatusOK, me.Code, me.Body.String())
		var usr user.User
		unmarshall(t, me, &usr)
		assert.Equal(t, resp.User.ID, usr.ID)
	})

	runHTTPTests(t, []httpTest{
		{
			name: "duplicate email", method: http.MethodPost, path: "/v1/users/register",
			body:     newUser("amaka.reg@example.com", testPassword),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"email": "a user with this email already exists"}),
		},
		{
			name: "weak password", method: http.MethodPost, path: "/v1/users/register",
			body:     newUser("amaka.weak@example.com", "Sh0rt!"),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"password": "password must contain at least 8 characters"}),
		},
		{
			name: "invalid email", method: http.MethodPost, path: "/v1/users/register",
			body:     newUser("not-an-email", testPassword),
			wantCode: http.StatusBadRequest,
		},
	})
}

func Test_userApi_login(t *testing.T) {
	usr := createUser(t, "Login", "login.user@example.com")
	testutil.CreateUser(t, usrRepo, "Gone", "Away", "gone.user@example.com", testPassword, nil, false)

	login := func(email, pwd string) []byte {
		return marshallObj(t, LoginRequest{Email: email, Password: pwd})
	}
	failed := marshallObj(t, httpErr{Error: "authentication failed"})

	runHTTPTests(t, []httpTest{
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/users/login",
			body: login(usr.Email, "Wr0ng!Pass#2024"), wantCode: http.StatusBadRequest, wantData: failed,
		},
		{
			name: "unknown email", method: http.MethodPost, path: "/v1/users/login",
			body: login("nobody@example.com", testPassword), wantCode: http.StatusBadRequest, wantData: failed,
		},
		{
			name: "deactivated", method: http.MethodPost, path: "/v1/users/login",
			body: login("gone.user@example.com", testPassword), wantCode: http.StatusForbidden,
			wantData: marshallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "missing password", method: http.MethodPost, path: "/v1/users/login",
			body: login(usr.Email, ""), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"password": "this field is required"}),
		},
	})

	t.Run("success", func(t *testing.T) {
		rec := do(http.MethodPost, "/v1/users/login", "", login(" LOGIN.user@example.com", testPassword))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp LoginResponse
		unmarshall(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)

		refreshed, err := usrRepo.GetUserByID(context.Background(), usr.ID)
		require.NoError(t, err)
		assert.True(t, refreshed.LastLogin.Valid)
	})
}

func Test_userApi_me(t *testing.T) {
	usr := createUser(t, "Me", "me.user@example.com", user.RoleUser, user.RoleMentor)

	runHTTPTests(t, []httpTest{
		{name: "auth required", path: "/v1/users/me", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "bad token", path: "/v1/users/me", token: "not.a.jwt", wantCode: http.StatusUnauthorized},
	})

	rec := do(http.MethodGet, "/v1/users/me", getToken(t, usr))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got user.User
	unmarshall(t, rec, &got)
	assert.Equal(t, usr.ID, got.ID)
	assert.Equal(t, usr.Email, got.Email)
	assert.True(t, got.IsMentor())
	assert.NotContains(t, rec.Body.String(), "password")
}

func Test_userApi_refreshToken(t *testing.T) {
	usr := createUser(t, "Refresh", "refresh.user@example.com")

	rec := do(http.MethodPost, "/v1/users/token-refresh", getToken(t, usr))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp LoginResponse
	unmarshall(t, rec, &resp)
	assert.NotEmpty(t, resp.Token)

	runHTTPTests(t, []httpTest{
		{
			name: "auth required", method: http.MethodPost, path: "/v1/users/token-refresh",
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken),
		},
		{
			name: "unknown user", method: http.MethodPost, path: "/v1/users/token-refresh",
			token:    getToken(t, user.User{ID: "missing-user", Email: "ghost@example.com"}),
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, httpErr{Error: "user not authenticated"}),
		},
	})
}

func Test_userApi_passwordReset(t *testing.T) {
	usr := createUser(t, "Reset", "reset.flow@example.com")
	codeRegex := regexp.MustCompile(`\b(\d{6})\b`)
	newPwd := "N3w!Secret#Pass"

	emailsvc.ResetSentMessages()

	// unknown emails get the same answer
	rec := do(http.MethodPost, "/v1/users/password-reset", "", marshallObj(t, PasswordResetRequest{Email: "nobody@example.com"}))
	require.Equal(t, http.StatusOK, rec.Code)
	_, sent := emailsvc.LastSentMessage()
	assert.False(t, sent)

	rec = do(http.MethodPost, "/v1/users/password-reset", "", marshallObj(t, PasswordResetRequest{Email: usr.Email}))
	require.Equal(t, http.StatusOK, rec.Code)
	msg, sent := emailsvc.LastSentMessage()
	require.True(t, sent)
	assert.Equal(t, usr.Email, msg.To[0].Address)
	match := codeRegex.FindStringSubmatch(msg.Body)
	require.Len(t, match, 2, msg.Body)
	code := match[1]

	wrongCode := "000000"
	if code == wrongCode {
		wrongCode = "111111"
	}
	confirm := func(code, pwd string) []byte {
		return marshallObj(t, user.ResetUserPassword{Email: usr.Email, Code: code, Password: pwd, PasswordConfirm: pwd})
	}

	runHTTPTests(t, []httpTest{
		{
			name: "wrong code", method: http.MethodPost, path: "/v1/users/password-reset-confirm",
			body: confirm(wrongCode, newPwd), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"code": "invalid value"}),
		},
		{
			name: "confirmed", method: http.MethodPost, path: "/v1/users/password-reset-confirm",
			body: confirm(code, newPwd), wantCode: http.StatusOK,
			wantData: marshallObj(t, SuccessResponse{Success: "Password has been reset with the new password."}),
		},
		{
			name: "code is single use", method: http.MethodPost, path: "/v1/users/password-reset-confirm",
			body: confirm(code, newPwd), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"code": "invalid value"}),
		},
		{
			name: "old password rejected", method: http.MethodPost, path: "/v1/users/login",
			body: marshallObj(t, LoginRequest{Email: usr.Email, Password: testPassword}), wantCode: http.StatusBadRequest,
		},
		{
			name: "new password accepted", method: http.MethodPost, path: "/v1/users/login",
			body: marshallObj(t, LoginRequest{Email: usr.Email, Password: newPwd}), wantCode: http.StatusOK,
		},
	})
}
