package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepCode_PrefixAndDigits(t *testing.T) {
	assert.Equal(t, "ps100", RepCode("PS100 Gladys"))
	assert.Equal(t, "ps100", RepCode("ps 100"))
	assert.Equal(t, "dc214", RepCode("DC-214 Bryan"))
	assert.Equal(t, "am12", RepCode("am.12"))
}

func TestRepCode_NoMatch(t *testing.T) {
	assert.Equal(t, "", RepCode("Gladys"))
	assert.Equal(t, "", RepCode("214 Bryan"))
	assert.Equal(t, "", RepCode(""))
	// Prefix must be a whole word: "caps100" does not contain code ps100.
	assert.Equal(t, "", RepCode("caps100"))
}

func TestLooseDigits_SingleRun(t *testing.T) {
	assert.Equal(t, []string{"214"}, LooseDigits("214/Bryan"))
}

func TestLooseDigits_MultipleRuns(t *testing.T) {
	assert.Equal(t, []string{"100", "200"}, LooseDigits("100 and 200"))
}

func TestLooseDigits_None(t *testing.T) {
	assert.Empty(t, LooseDigits("Gladys"))
}

func TestPersonCore_StripsPrefixesAndDigits(t *testing.T) {
	assert.Equal(t, "gladys", PersonCore("PS100 Gladys"))
	assert.Equal(t, "bryan", PersonCore("214/Bryan"))
	assert.Equal(t, "wilson", PersonCore("Mr. Wilson 7"))
}

func TestPersonCore_PrefixWithoutDigits(t *testing.T) {
	// Role prefixes are stripped even when no digits follow.
	assert.Equal(t, "gladys", PersonCore("ps Gladys"))
}

func TestPersonCore_Empty(t *testing.T) {
	assert.Equal(t, "", PersonCore(""))
	assert.Equal(t, "", PersonCore("100 / 200"))
}

func TestPersonCore_FusedCodeLeavesPrefix(t *testing.T) {
	// "PS100" is a single word, so the whole-word prefix strip does not
	// fire; only the digits go. The code tier catches these long before
	// the fuzzy tier ever sees the leftover.
	assert.Equal(t, "ps", PersonCore("PS100"))
}
