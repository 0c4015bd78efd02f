package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddPlain(t *testing.T) {
	intent := Parse("1000 1002")
	require.NotNil(t, intent)
	assert.Equal(t, IntentAdd, intent.Kind)
	assert.Equal(t, []string{"1000", "1002"}, intent.Rooms)
	assert.False(t, intent.Emptied)
}

func TestParseAddEmptiedKeyword(t *testing.T) {
	intent := Parse("1000 опустошили")
	require.NotNil(t, intent)
	assert.Equal(t, IntentAdd, intent.Kind)
	assert.Equal(t, []string{"1000"}, intent.Rooms)
	assert.True(t, intent.Emptied)
}

func TestParseAddEmptiedKeywordCaseAndSuffix(t *testing.T) {
	for _, text := range []string{
		"1002 Опустошён",
		"1002 опустошен полностью",
		"1002, 1004 - всё опустошили вчера",
	} {
		intent := Parse(text)
		require.NotNil(t, intent, text)
		assert.True(t, intent.Emptied, text)
	}
}

func TestParseAddTrailingTextWithoutKeyword(t *testing.T) {
	intent := Parse("1000 ключ не подошёл")
	require.NotNil(t, intent)
	assert.Equal(t, []string{"1000"}, intent.Rooms)
	assert.False(t, intent.Emptied)
}

func TestParseDelete(t *testing.T) {
	intent := Parse("-1000, 1002")
	require.NotNil(t, intent)
	assert.Equal(t, IntentDelete, intent.Kind)
	assert.Equal(t, []string{"1000", "1002"}, intent.Rooms)
}

func TestParseDeleteRejectsExtraWords(t *testing.T) {
	assert.Nil(t, Parse("-1000 ошибка"))
	assert.Nil(t, Parse("- 1000 и 1002"))
	assert.Nil(t, Parse("-"))
	assert.Nil(t, Parse("-привет"))
}

func TestParseMustStartWithValidRoom(t *testing.T) {
	assert.Nil(t, Parse("abc 1000"))
	assert.Nil(t, Parse("проверил 1000"))
	assert.Nil(t, Parse("9999"))     // digits, but not a room
	assert.Nil(t, Parse("99 1000")) // leading run too short to be a room
}

func TestParseRejectsInterleavedWords(t *testing.T) {
	// Free text is only allowed after the last room number, never between.
	assert.Nil(t, Parse("1000 и 1002"))
	assert.Nil(t, Parse("1000 потом 1002 опустошили"))
}

func TestParseSeparatorsBetweenRooms(t *testing.T) {
	for _, text := range []string{
		"1000,1002",
		"1000, 1002.",
		"1000; 1002",
		"1000 - 1002",
		"1000!1002?",
	} {
		intent := Parse(text)
		require.NotNil(t, intent, text)
		assert.Equal(t, []string{"1000", "1002"}, intent.Rooms, text)
	}
}

func TestParseIgnoresNonCommands(t *testing.T) {
	assert.Nil(t, Parse(""))
	assert.Nil(t, Parse("   "))
	assert.Nil(t, Parse("доброе утро"))
	assert.Nil(t, Parse("взял ключи"))
}

func TestParseUnknownRoomsDroppedFromSet(t *testing.T) {
	// 9999 is a digit run but not a registry member; it acts as noise between
	// numbers and does not invalidate the message.
	intent := Parse("1000 9999 1002")
	require.NotNil(t, intent)
	assert.Equal(t, []string{"1000", "1002"}, intent.Rooms)
}

func TestParseDeduplicatesRooms(t *testing.T) {
	intent := Parse("1000 1002 1000")
	require.NotNil(t, intent)
	assert.Equal(t, []string{"1000", "1002"}, intent.Rooms)
}

func TestParseDuplicateRoomKeywordAfterLastOccurrence(t *testing.T) {
	// "after the last number" is evaluated against the last occurrence, so the
	// keyword here still counts.
	intent := Parse("1000 1000 опустошили")
	require.NotNil(t, intent)
	assert.Equal(t, []string{"1000"}, intent.Rooms)
	assert.True(t, intent.Emptied)
}
