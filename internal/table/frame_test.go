package table

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFrame() *Frame {
	f := New("Entity", "Year", "welfare_type", "mean")
	f.Append(Row{"Entity": Str("Chile"), "Year": Int(2017), "welfare_type": Str("income"), "mean": Num(20)})
	f.Append(Row{"Entity": Str("Chile"), "Year": Int(2017), "welfare_type": Str("consumption"), "mean": Num(18)})
	f.Append(Row{"Entity": Str("Angola"), "Year": Int(2018), "welfare_type": Str("consumption"), "mean": Null})
	return f
}

func TestValue(t *testing.T) {
	tests := []struct {
		name   string
		value  Value
		null   bool
		str    string
		number bool
	}{
		{name: "number", value: Num(2.5), str: "2.5", number: true},
		{name: "integer", value: Int(2019), str: "2019", number: true},
		{name: "nan is null", value: Num(math.NaN()), null: true},
		{name: "inf is null", value: Num(math.Inf(1)), null: true},
		{name: "string", value: Str("income"), str: "income"},
		{name: "null", value: Null, null: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.null, tt.value.IsNull())
			assert.Equal(t, tt.number, tt.value.IsNumber())
			assert.Equal(t, tt.str, tt.value.String())
		})
	}
}

func TestParse(t *testing.T) {
	assert.True(t, Parse("").IsNull())
	assert.True(t, Parse("NA").IsNull())
	assert.True(t, Parse("NaN").IsNull())
	f, ok := Parse("0.32").Float()
	require.True(t, ok)
	assert.InDelta(t, 0.32, f, 1e-12)
	assert.Equal(t, "CHL", Parse("CHL").String())
	assert.False(t, Parse("CHL").IsNumber())
}

func TestValue_Round(t *testing.T) {
	v, ok := Num(1.23456).Round(3).Float()
	require.True(t, ok)
	assert.Equal(t, 1.235, v)
	assert.Equal(t, "x", Str("x").Round(3).String())
}

func TestFrame_AppendRegistersColumns(t *testing.T) {
	f := New("a")
	f.Append(Row{"a": Int(1), "c": Int(3), "b": Int(2)})
	assert.Equal(t, []string{"a", "b", "c"}, f.Columns())
	assert.Equal(t, 1, f.Len())
}

func TestFrame_SortByIsStable(t *testing.T) {
	f := sampleFrame().SortBy("Entity", "Year")
	want := []string{"consumption", "income", "consumption"}
	for i := range want {
		assert.Equal(t, want[i], f.Row(i).Text("welfare_type"))
	}
}

func TestFrame_SelectCreatesMissingColumns(t *testing.T) {
	f := sampleFrame().Select("Year", "missing", "Entity")
	assert.Equal(t, []string{"Year", "missing", "Entity"}, f.Columns())
	assert.True(t, f.Row(0).Get("missing").IsNull())
}

func TestFrame_DropAndRename(t *testing.T) {
	f := sampleFrame().Drop("mean").Rename(map[string]string{"Entity": "country"})
	if diff := cmp.Diff([]string{"country", "Year", "welfare_type"}, f.Columns()); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Chile", f.Row(0).Text("country"))
}

func TestConcat_UnionOfColumns(t *testing.T) {
	a := New("Entity", "x")
	a.Append(Row{"Entity": Str("A"), "x": Int(1)})
	b := New("Entity", "y")
	b.Append(Row{"Entity": Str("B"), "y": Int(2)})

	out := Concat(a, nil, b)
	assert.Equal(t, []string{"Entity", "x", "y"}, out.Columns())
	require.Equal(t, 2, out.Len())
	assert.True(t, out.Row(0).Get("y").IsNull())
	assert.True(t, out.Row(1).Get("x").IsNull())
}

func TestFrame_Duplicates(t *testing.T) {
	f := sampleFrame()
	assert.Equal(t, []bool{false, true, false}, f.Duplicated("Entity", "Year"))
	assert.Equal(t, []string{"Chile|2017"}, f.DuplicateKeys("Entity", "Year"))
}

func TestMerge(t *testing.T) {
	right := New("Entity", "Year", "p50")
	right.Append(Row{"Entity": Str("Chile"), "Year": Int(2017), "p50": Num(11)})

	t.Run("left keeps unmatched rows", func(t *testing.T) {
		out, err := Merge(sampleFrame(), right, MergeOptions{On: []string{"Entity", "Year"}, Validate: CardinalityManyToOne})
		require.NoError(t, err)
		require.Equal(t, 3, out.Len())
		assert.Equal(t, "11", out.Row(1).Text("p50"))
		assert.True(t, out.Row(2).Get("p50").IsNull())
	})

	t.Run("inner drops unmatched rows", func(t *testing.T) {
		out, err := Merge(sampleFrame(), right, MergeOptions{On: []string{"Entity", "Year"}, How: JoinInner})
		require.NoError(t, err)
		assert.Equal(t, 2, out.Len())
	})

	t.Run("cardinality violation", func(t *testing.T) {
		_, err := Merge(sampleFrame(), right, MergeOptions{On: []string{"Entity", "Year"}, Validate: CardinalityOneToOne})
		var cerr *CardinalityError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, "left", cerr.Side)
		assert.Equal(t, []string{"Chile|2017"}, cerr.Keys)
	})

	t.Run("colliding columns get suffix", func(t *testing.T) {
		r := New("Entity", "Year", "mean")
		r.Append(Row{"Entity": Str("Angola"), "Year": Int(2018), "mean": Num(7)})
		out, err := Merge(sampleFrame(), r, MergeOptions{On: []string{"Entity", "Year"}})
		require.NoError(t, err)
		assert.True(t, out.HasColumn("mean_right"))
		assert.Equal(t, "7", out.Row(2).Text("mean_right"))
	})

	t.Run("no keys", func(t *testing.T) {
		_, err := Merge(sampleFrame(), right, MergeOptions{})
		assert.Error(t, err)
	})
}
