package formats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateScript_CompleteScript(t *testing.T) {
	src := "scn TestQuestScript\nshort counter\nbegin GameMode\nset counter to 1\nend"
	d := append([]byte(src+"\n"), 0, 0, 0xFF)

	r := validateScript(window(d))
	require.NotNil(t, r)
	assert.Equal(t, "script_scn", r.FormatID)
	assert.Equal(t, "TestQuestScript", r.DisplayName)
	assert.Equal(t, int64(len(src)), r.Length)
}

func TestValidateScript_ScriptNameHeader(t *testing.T) {
	src := "ScriptName DoorTrapScript\nfloat timer\nbegin OnActivate\nend"
	d := append([]byte(src), 0)

	r := validateScript(window(d))
	require.NotNil(t, r)
	assert.Equal(t, "script_sn", r.FormatID)
	assert.Equal(t, "DoorTrapScript", r.DisplayName)
}

func TestValidateScript_IncompleteMarked(t *testing.T) {
	src := "scn TornBuffScript\nshort state\nset state to 3\nset sta"
	d := append([]byte(src), 0xC0, 0xC0)

	r := validateScript(window(d))
	require.NotNil(t, r)
	assert.Equal(t, "TornBuffScript_INCOMPLETE", r.DisplayName)
	assert.Equal(t, int64(len(src)), r.Length)
}

func TestValidateScript_StopsAtNextHeader(t *testing.T) {
	first := "scn FirstScript\nshort a\nset a to 1\nend"
	d := []byte(first + "\nscn SecondScript\nshort b\nend\n")

	r := validateScript(window(d))
	require.NotNil(t, r)
	assert.Equal(t, "FirstScript", r.DisplayName)
	assert.Equal(t, int64(len(first)), r.Length)
}

func TestValidateScript_Rejects(t *testing.T) {
	assert.Nil(t, validateScript(window([]byte("scn Bad$Name\nshort a\nend\n"))), "invalid identifier")
	assert.Nil(t, validateScript(window([]byte("scn NoNewlineHere"))), "header line never ends")
	assert.Nil(t, validateScript(window([]byte("scn OnlyHeader\n\x00\x00\x00\x00\x00\x00\x00\x00"))), "no body")
	assert.Nil(t, validateScript(window([]byte("scn \nshort a\nset a to 1\nend\n"))), "empty name")
}

func TestScriptName(t *testing.T) {
	assert.Equal(t, "Foo_Bar2", scriptName("scn Foo_Bar2"))
	assert.Equal(t, "Quest01", scriptName("ScriptName Quest01 ; comment"))
	assert.Equal(t, "", scriptName("begin GameMode"))
	// Extra tokens after the name are dropped, not fatal.
	assert.Equal(t, "two", scriptName("scn two words"))
}
