package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	tr, err := New("hin")
	require.NoError(t, err)

	assert.Equal(t, "OTP Send Karen", tr.T("login.send_otp_btn"))
	// missing in hin, present in en
	assert.Equal(t, "Logged out successfully", tr.T("settings.logoutSuccess"))
	// missing everywhere
	assert.Equal(t, "no.such.key", tr.T("no.such.key"))
	// a section is not a string
	assert.Equal(t, "login", tr.T("login"))
}

func TestNew_UnknownFallsBackToEnglish(t *testing.T) {
	tr, err := New("fr")
	require.NoError(t, err)
	assert.Equal(t, DefaultLanguage, tr.Language())
	assert.Equal(t, "Send OTP", tr.T("login.send_otp_btn"))
}

func TestSetLanguage(t *testing.T) {
	tr, err := New("")
	require.NoError(t, err)

	require.NoError(t, tr.SetLanguage("hi"))
	assert.Equal(t, "OTP भेजें", tr.T("login.send_otp_btn"))

	err = tr.SetLanguage("xx")
	assert.ErrorIs(t, err, ErrUnknownLanguage)
	assert.Equal(t, "hi", tr.Language())
}

func TestTf(t *testing.T) {
	tr, err := New("en")
	require.NoError(t, err)
	assert.Equal(t, "Max size should be 20MB.", tr.Tf("upload.tooLarge", 20))
}

func TestCatalogsCoverEnglishLoginKeys(t *testing.T) {
	tr, err := New("en")
	require.NoError(t, err)

	hin := map[string]bool{}
	for _, k := range tr.Keys("hin") {
		hin[k] = true
	}
	for _, k := range tr.Keys("hi") {
		assert.True(t, hin[k], "hi key %s missing in hin", k)
	}
	assert.Contains(t, tr.Keys("en"), "login.invalidEmail")
}
