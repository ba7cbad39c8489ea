package title

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadlan-labs/shuma-cli/internal/model"
)

const compositeTitle = `החלטת שמאי מכריע מיום 15.3.2021 בעניין היטל השבחה - הועדה המקומית לתכנון ולבניה רמת גן - גוש 6205 חלקה 112 - ישראל לוי`

func TestParse_CompositeAllFields(t *testing.T) {
	// The composite pattern must work regardless of the category passed.
	for _, src := range model.AllSourceCategories() {
		f := Parse(compositeTitle, src)

		assert.Equal(t, "15-03-2021", f.DecisionDate, "source %s", src)
		assert.Equal(t, "היטל השבחה", f.CaseType, "source %s", src)
		assert.Equal(t, "רמת גן", f.Committee, "source %s", src)
		assert.Equal(t, "6205", f.Block, "source %s", src)
		assert.Equal(t, "112", f.Plot, "source %s", src)
		assert.Equal(t, "ישראל לוי", f.Appraiser, "source %s", src)
	}
}

func TestParse_CompositeSlashDate(t *testing.T) {
	title := `החלטה מיום 7/6/2019 בעניין ירידת ערך - ועדה מקומית חולון - גוש 7050 חלקות 12-14 - דנה כהן`
	f := Parse(title, model.SourceDecisive)

	assert.Equal(t, "07-06-2019", f.DecisionDate)
	assert.Equal(t, "ירידת ערך", f.CaseType)
	assert.Equal(t, "חולון", f.Committee)
	assert.Equal(t, "7050", f.Block)
	assert.Equal(t, "12-14", f.Plot)
	assert.Equal(t, "דנה כהן", f.Appraiser)
}

func TestParse_AppealsComposite(t *testing.T) {
	title := `ערר (1234/21) מיום 02-11-2020 בעניין פיצויים בגין הפקעה - ועדת ערר מחוז תל אביב - גוש 6638 חלקה 7 - משה פרץ`
	f := Parse(title, model.SourceAppeals)

	assert.Equal(t, "02-11-2020", f.DecisionDate)
	assert.Equal(t, "פיצויי הפקעה", f.CaseType, "specific phrase wins over generic compensation")
	assert.Equal(t, "מחוז תל אביב", f.Committee)
	assert.Equal(t, "6638", f.Block)
	assert.Equal(t, "7", f.Plot)
	assert.Equal(t, "משה פרץ", f.Appraiser)
}

func TestParse_BlockPlotFragmentOnly(t *testing.T) {
	f := Parse("גוש 6205 חלקה 112", model.SourceDecisive)

	assert.Equal(t, "6205", f.Block)
	assert.Equal(t, "112", f.Plot)
	assert.Empty(t, f.Committee, "no field is invented from absent data")
	assert.Empty(t, f.Appraiser)
	assert.Empty(t, f.CaseType)
	assert.Empty(t, f.DecisionDate)
}

func TestParse_FallbackPerField(t *testing.T) {
	// Not in composite form; each field cascade runs independently.
	title := `שומה מכרעת בעניין היטל השבחה בגוש 3700 חלקה 45, הועדה המקומית לתכנון ולבניה נתניה, מיום 1.2.2018`
	f := Parse(title, model.SourceDecisive)

	assert.Equal(t, "3700", f.Block)
	assert.Equal(t, "45", f.Plot)
	assert.Equal(t, "נתניה", f.Committee)
	assert.Equal(t, "היטל השבחה", f.CaseType)
	assert.Equal(t, "01-02-2018", f.DecisionDate)
}

func TestParse_ActorStopwordNotCaptured(t *testing.T) {
	title := `החלטת השמאי המכריע מיום 1.1.2020 בנושא כלשהו`
	f := Parse(title, model.SourceDecisive)
	assert.Empty(t, f.Appraiser, "scaffolding words are not appraiser names")
}

func TestParse_ActorFromDecisivePhrase(t *testing.T) {
	title := `שומה מכרעת של השמאי המכריע יעקב גולן בעניין דמי היתר`
	f := Parse(title, model.SourceDecisive)
	assert.Equal(t, "יעקב גולן", f.Appraiser, "name capture stops at scaffolding words")
}

func TestParse_EmptyTitle(t *testing.T) {
	f := Parse("   ", model.SourceDecisive)
	assert.Equal(t, model.TitleFields{}, f)
}

func TestCaseType_Priority(t *testing.T) {
	assert.Equal(t, "פיצויי הפקעה", CaseType("תביעת פיצויים בגין הפקעה של חלקה"))
	assert.Equal(t, "פיצויים", CaseType("תביעת פיצויים כנגד הועדה"))
	assert.Equal(t, "היטל השבחה", CaseType("שומת השבחה"))
	assert.Equal(t, "תביעה לפי סעיף 197", CaseType("תביעה לפי סעיף 197 לחוק"))
	assert.Empty(t, CaseType("עניין אחר לגמרי"))
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"15.3.2021", "15-03-2021"},
		{"15/03/2021", "15-03-2021"},
		{"15-3-2021", "15-03-2021"},
		{"2021-03-15", "15-03-2021"},
		{"7.6.19", "07-06-2019"},
		{"7.6.85", "07-06-1985"},
	}
	for _, tt := range tests {
		got, ok := NormalizeDate(tt.in)
		require.True(t, ok, "token %q", tt.in)
		assert.Equal(t, tt.want, got, "token %q", tt.in)
	}
}

func TestNormalizeDate_Rejects(t *testing.T) {
	for _, in := range []string{"45.13.2021", "1.2", "0.0.2020", "15.3.2200"} {
		_, ok := NormalizeDate(in)
		assert.False(t, ok, "token %q", in)
	}
}

func TestFindDate_RejectsEmbeddedPartial(t *testing.T) {
	// "15.3.202" inside "15.3.2021x" must not be matched as a shorter date;
	// the full token normalizes instead.
	got, ok := FindDate("נחתם 15.3.2021 בצהריים")
	require.True(t, ok)
	assert.Equal(t, "15-03-2021", got)

	// A candidate glued to more digits is a fragment, not a date.
	_, ok = FindDate("מספר תיק 15.3.20214")
	assert.False(t, ok)
}
