package conversion

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type builderConfig struct {
	country  string
	currency string
	value    float64
}

func (c builderConfig) GetConversionCountryCode() string { return c.country }
func (c builderConfig) GetConversionCurrency() string    { return c.currency }
func (c builderConfig) GetConversionValue() float64      { return c.value }

func fixedBuilder(cfg builderConfig) *Builder {
	b := NewBuilder(cfg)
	b.now = func() time.Time { return time.Unix(1700000000, 0) }
	return b
}

func TestHashIsSHA256Hex(t *testing.T) {
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", Hash("abc"))
	assert.Equal(t, Hash("a@b.com"), Hash("a@b.com"))
	assert.NotEqual(t, Hash("a@b.com"), Hash("a@b.co"))
}

func TestBuildNormalizesBeforeHashing(t *testing.T) {
	b := fixedBuilder(builderConfig{})

	ev := b.Build(Input{
		Email:     "  A@B.com ",
		Phone:     "07911 123456",
		FirstName: " Sam ",
		LastName:  "SMITH",
		PostCode:  "SW1A 1AA",
		ChildName: "Max",
		Gender:    "male",
		Age:       "5",
	}, "evt-1", "https://example.com/apply")

	assert.Equal(t, EventNameLead, ev.EventName)
	assert.Equal(t, ActionSourceWebsite, ev.ActionSource)
	assert.Equal(t, int64(1700000000), ev.EventTime)
	assert.Equal(t, "evt-1", ev.EventID)
	assert.Equal(t, "https://example.com/apply", ev.EventSourceURL)

	assert.Equal(t, []string{Hash("a@b.com")}, ev.UserData.Email)
	assert.Equal(t, []string{Hash("07911123456")}, ev.UserData.Phone)
	assert.Equal(t, []string{Hash("sam")}, ev.UserData.FirstName)
	assert.Equal(t, []string{Hash("smith")}, ev.UserData.LastName)
	assert.Equal(t, []string{Hash("sw1a1aa")}, ev.UserData.Zip)
	assert.Equal(t, []string{Hash("uk")}, ev.UserData.Country)

	assert.Equal(t, CustomData{ChildName: "Max", Gender: "male", Age: "5", Currency: "GBP", Value: 0}, ev.CustomData)
}

func TestBuildAbsentFieldsAreEmptyLists(t *testing.T) {
	b := fixedBuilder(builderConfig{})

	ev := b.Build(Input{Email: "   ", Phone: "n/a"}, "evt-2", "")

	for name, field := range map[string][]string{
		"em": ev.UserData.Email,
		"ph": ev.UserData.Phone,
		"fn": ev.UserData.FirstName,
		"ln": ev.UserData.LastName,
		"ct": ev.UserData.City,
		"st": ev.UserData.State,
		"zp": ev.UserData.Zip,
	} {
		require.NotNil(t, field, name)
		assert.Empty(t, field, name)
		assert.NotContains(t, field, Hash(""), name)
	}
	assert.Equal(t, []string{Hash("uk")}, ev.UserData.Country, "country is injected unconditionally")

	raw, err := json.Marshal(ev.UserData)
	require.NoError(t, err)
	assert.JSONEq(t, `{"em":[],"ph":[],"fn":[],"ln":[],"ct":[],"st":[],"zp":[],"country":["`+Hash("uk")+`"]}`, string(raw))
}

func TestBuildUsesConfiguredCountryAndCurrency(t *testing.T) {
	b := fixedBuilder(builderConfig{country: " IE ", currency: "EUR", value: 12.5})

	ev := b.Build(Input{}, "evt-3", "")

	assert.Equal(t, []string{Hash("ie")}, ev.UserData.Country)
	assert.Equal(t, "EUR", ev.CustomData.Currency)
	assert.Equal(t, 12.5, ev.CustomData.Value)
}

func TestBuildIsDeterministic(t *testing.T) {
	b := fixedBuilder(builderConfig{})
	in := Input{Email: "a@b.com", Phone: "07911123456", PostCode: "SW1A1AA"}

	assert.Equal(t, b.Build(in, "same", ""), b.Build(in, "same", ""))
}
