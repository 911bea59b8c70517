package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func check(t *testing.T, src string) []Diagnostic {
	t.Helper()
	diags, err := New().Check([]byte(src))
	require.NoError(t, err)
	return diags
}

func TestSchemaColumnAccess(t *testing.T) {
	src := `
from typedframes import BaseSchema, Column

class UserSchema(BaseSchema):
    user_id = Column(type=int)
    email = Column(type=str)

df: DataFrame[UserSchema] = load()
print(df["user_id"])
print(df["name"])
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Equal(t, CodeUnknownColumn, diags[0].Code)
	assert.Contains(t, diags[0].Message, "name")
	assert.Contains(t, diags[0].Message, "UserSchema")
}

func TestAnnotatedPolarsPattern(t *testing.T) {
	src := `
from typing import Annotated
import polars as pl
from typedframes import BaseSchema, Column

class UserSchema(BaseSchema):
    user_id = Column(type=int)
    email = Column(type=str)

df: Annotated[pl.DataFrame, UserSchema] = pl.read_csv("data.csv")
print(df["user_id"])
print(df["wrong_column"])
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "wrong_column")
	assert.Contains(t, diags[0].Message, "UserSchema")
}

func TestFunctionReturnFact(t *testing.T) {
	src := `
from typedframes import BaseSchema, Column
from typedframes.pandas import PandasFrame

class UserSchema(BaseSchema):
    user_id = Column(type=int)
    email = Column(type=str)

def load_users() -> PandasFrame[UserSchema]:
    return PandasFrame.from_schema(pd.read_csv("users.csv"), UserSchema)

df = load_users()
print(df["user_id"])
print(df["name"])
print(df["emai"])
`
	diags := check(t, src)
	require.Len(t, diags, 2)
	assert.Contains(t, diags[0].Message, "name")
	assert.Contains(t, diags[0].Message, "UserSchema")
	assert.Contains(t, diags[1].Message, "emai")
	assert.Contains(t, diags[1].Message, "did you mean 'email'")
}

func TestAttributeAccessAndReservedSkip(t *testing.T) {
	src := `
from typedframes import BaseSchema, Column

class UserSchema(BaseSchema):
    user_id = Column(type=int)
    email = Column(type=str)

df: DataFrame[UserSchema] = load()
print(df.email)
print(df.shape)
print(df.username)
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "username")
}

func TestColumnAlias(t *testing.T) {
	src := `
from typedframes import BaseSchema, Column

class EventSchema(BaseSchema):
    ts = Column(type=int, alias="timestamp")

df: DataFrame[EventSchema] = load()
print(df["timestamp"])
print(df["ts"])
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "'ts'")
}

func TestColumnGroupMembers(t *testing.T) {
	src := `
from typedframes import BaseSchema, Column, ColumnGroup

class WideSchema(BaseSchema):
    metrics = ColumnGroup(members=["m1", "m2"])

df: DataFrame[WideSchema] = load()
print(df["metrics"])
print(df["m1"])
print(df["m2"])
print(df["m3"])
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "'m3'")
}

func TestInheritanceUnion(t *testing.T) {
	src := `
from typedframes import BaseSchema, Column

class BaseEvent(BaseSchema):
    event_id = Column(type=int)

class Click(BaseEvent):
    target = Column(type=str)

df: DataFrame[Click] = load()
print(df["event_id"])
print(df["target"])
print(df["missing"])
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "missing")
}

func TestReservedNameAtDefinition(t *testing.T) {
	src := `
from typedframes import BaseSchema, Column

class BadSchema(BaseSchema):
    count = Column(type=int)
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Equal(t, CodeReservedName, diags[0].Code)
	assert.Equal(t, SeverityError, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "'count'")
	assert.Contains(t, diags[0].Message, "BadSchema")
	assert.Contains(t, diags[0].Message, "count_value")
	assert.Equal(t, 4, diags[0].Line)
}

func TestLoaderWithUsecols(t *testing.T) {
	src := `
import pandas as pd

df = pd.read_csv("data.csv", usecols=["a", "b"])
print(df["a"])
print(df["c"])
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "'c'")
	assert.Contains(t, diags[0].Message, "inferred column set")
}

func TestLoaderWithSchemaDict(t *testing.T) {
	src := `
import polars as pl

df = pl.read_csv("data.csv", schema={"a": pl.Int64, "b": pl.Utf8})
print(df["b"])
print(df["z"])
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "'z'")
}

func TestUntrackedLoaderWarning(t *testing.T) {
	src := `
import pandas as pd

df = pd.read_csv("data.csv")
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Equal(t, CodeUntrackedDataFrame, diags[0].Code)
	assert.Equal(t, SeverityWarning, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "usecols")
}

func TestAnnotatedLoaderEmitsNoWarning(t *testing.T) {
	src := `
from typedframes import BaseSchema, Column

class UserSchema(BaseSchema):
    user_id = Column(type=int)

df: Annotated[pd.DataFrame, UserSchema] = pd.read_csv("data.csv")
print(df["user_id"])
`
	assert.Empty(t, check(t, src))
}

func TestSubsetSelection(t *testing.T) {
	src := `
import pandas as pd

df = pd.read_csv("data.csv", usecols=["a", "b", "c"])
narrow = df[["a", "b"]]
print(narrow["a"])
print(narrow["c"])
bad = df[["a", "zzz"]]
`
	diags := check(t, src)
	require.Len(t, diags, 2)
	assert.Contains(t, diags[0].Message, "'c'")
	assert.Contains(t, diags[1].Message, "'zzz'")
}

func TestMaskPassthrough(t *testing.T) {
	src := `
import pandas as pd

df = pd.read_csv("data.csv", usecols=["a", "b"])
subset = df[df["a"] > 0]
print(subset["b"])
print(subset["c"])
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "'c'")
}

func TestMergeUnion(t *testing.T) {
	src := `
import pandas as pd

left = pd.read_csv("l.csv", usecols=["id", "a"])
right = pd.read_csv("r.csv", usecols=["id", "b"])
joined = left.merge(right, on="id")
print(joined["a"])
print(joined["b"])
print(joined["c"])
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "'c'")
}

func TestConcatUnion(t *testing.T) {
	src := `
import pandas as pd

one = pd.read_csv("1.csv", usecols=["a"])
two = pd.read_csv("2.csv", usecols=["b"])
both = pd.concat([one, two])
print(both["a"])
print(both["b"])
print(both["c"])
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "'c'")
}

func TestBareConcatObjsKeyword(t *testing.T) {
	src := `
from pandas import concat
import pandas as pd

one = pd.read_csv("1.csv", usecols=["a"])
two = pd.read_csv("2.csv", usecols=["b"])
both = concat(objs=[one, two])
print(both["a"])
print(both["missing"])
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "missing")
}

func TestRowPassthroughMethods(t *testing.T) {
	src := `
import pandas as pd

df = pd.read_csv("data.csv", usecols=["a", "b"])
top = df.head(10)
print(top["a"])
clean = df.dropna()
print(clean["b"])
print(clean["c"])
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "'c'")
}

func TestSelectNarrowsAndValidates(t *testing.T) {
	src := `
import polars as pl

df = pl.read_csv("data.csv", usecols=["a", "b", "c"])
narrow = df.select(["a", "b"])
print(narrow["a"])
print(narrow["c"])
bad = df.select(["a", "nope"])
`
	diags := check(t, src)
	require.Len(t, diags, 2)
	assert.Contains(t, diags[0].Message, "'c'")
	assert.Contains(t, diags[1].Message, "nope")
}

func TestDropTracking(t *testing.T) {
	src := `
import pandas as pd

df = pd.read_csv("data.csv", usecols=["a", "b", "c"])
slim = df.drop(columns=["c"])
print(slim["a"])
print(slim["c"])
warned = df.drop(columns=["ghost"])
`
	diags := check(t, src)
	require.Len(t, diags, 2)
	assert.Equal(t, CodeUnknownColumn, diags[0].Code)
	assert.Contains(t, diags[0].Message, "'c'")
	assert.Equal(t, CodeDroppedUnknownColumn, diags[1].Code)
	assert.Equal(t, SeverityWarning, diags[1].Severity)
	assert.Contains(t, diags[1].Message, "Dropped column 'ghost'")
}

func TestDropAxisZeroIsRowDrop(t *testing.T) {
	src := `
import pandas as pd

df = pd.read_csv("data.csv", usecols=["a", "b"])
rows = df.drop("a", axis=0)
print(rows["a"])
`
	assert.Empty(t, check(t, src))
}

func TestDropAxisOnePositional(t *testing.T) {
	src := `
import pandas as pd

df = pd.read_csv("data.csv", usecols=["a", "b"])
slim = df.drop("a", axis=1)
print(slim["a"])
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "'a'")
}

func TestRenameTracking(t *testing.T) {
	src := `
import pandas as pd

df = pd.read_csv("data.csv", usecols=["a", "b"])
renamed = df.rename(columns={"a": "x"})
print(renamed["x"])
print(renamed["a"])
bad = df.rename(columns={"ghost": "y"})
`
	diags := check(t, src)
	require.Len(t, diags, 2)
	assert.Contains(t, diags[0].Message, "'a'")
	assert.Contains(t, diags[1].Message, "ghost")
	assert.Contains(t, diags[1].Message, "(rename)")
}

func TestAssignAddsColumns(t *testing.T) {
	src := `
import pandas as pd

df = pd.read_csv("data.csv", usecols=["a"])
wide = df.assign(b=1, c=2)
print(wide["a"])
print(wide["b"])
print(wide["c"])
print(wide["d"])
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "'d'")
}

func TestPopRebindsReceiver(t *testing.T) {
	src := `
import pandas as pd

df = pd.read_csv("data.csv", usecols=["a", "b"])
removed = df.pop("a")
print(df["a"])
print(df["b"])
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "'a'")
	assert.Contains(t, diags[0].Message, "inferred column set")
}

func TestPopUnknownColumn(t *testing.T) {
	src := `
import pandas as pd

df = pd.read_csv("data.csv", usecols=["a"])
df.pop("ghost")
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "(pop)")
}

func TestInsertGrowsReceiver(t *testing.T) {
	src := `
import pandas as pd

df = pd.read_csv("data.csv", usecols=["a"])
df.insert(0, "b", 1)
print(df["b"])
print(df["c"])
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "'c'")
}

func TestDelColumn(t *testing.T) {
	src := `
import pandas as pd

df = pd.read_csv("data.csv", usecols=["a", "b"])
del df["a"]
print(df["a"])
del df["ghost"]
`
	diags := check(t, src)
	require.Len(t, diags, 2)
	assert.Contains(t, diags[0].Message, "'a'")
	assert.Contains(t, diags[1].Message, "(del)")
}

func TestMutationTracking(t *testing.T) {
	src := `
import pandas as pd

df = pd.read_csv("data.csv", usecols=["a"])
df["fresh"] = 1
print(df["fresh"])
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "(mutation tracking)")
	assert.Contains(t, diags[0].Message, "fresh")
}

func TestConstructorSubscript(t *testing.T) {
	src := `
from typedframes import BaseSchema, Column

class UserSchema(BaseSchema):
    user_id = Column(type=int)

df = DataFrame[UserSchema](data)
print(df["user_id"])
print(df["nope"])
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "nope")
}

func TestSchemaConstructorChain(t *testing.T) {
	src := `
from typedframes import BaseSchema, Column

class UserSchema(BaseSchema):
    user_id = Column(type=int)

df = UserSchema().read_csv("users.csv")
print(df["user_id"])
print(df["nope"])
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "nope")
}

func TestFromPandasFactory(t *testing.T) {
	src := `
from typedframes import BaseSchema, Column

class UserSchema(BaseSchema):
    user_id = Column(type=int)

df = UserSchema.from_pandas(raw)
print(df["user_id"])
print(df["nope"])
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "nope")
}

func TestNoFalsePositiveOnMethodCallName(t *testing.T) {
	src := `
from typedframes import BaseSchema, Column
from typedframes.pandas import PandasFrame

class UserData(BaseSchema):
    user_id = Column(type=int)
    email = Column(type=str)

import pandas as pd

df: PandasFrame[UserData] = pd.read_csv("users.csv")
augmented = df.assign(created_at="2024-01-01")
print(augmented["user_id"])
`
	assert.Empty(t, check(t, src))
}

func TestPlColInSelect(t *testing.T) {
	src := `
from typedframes import BaseSchema, Column
from typedframes.polars import PolarsFrame
import polars as pl

class OrderSchema(BaseSchema):
    order_id = Column(type=int)
    amount = Column(type=float)

df: PolarsFrame[OrderSchema] = pl.read_csv("orders.csv")
result = df.select(pl.col("amount"))
bad = df.select(pl.col("revenue"))
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "revenue")
	assert.Contains(t, diags[0].Message, "OrderSchema")
}

func TestPlColInFilterComparison(t *testing.T) {
	src := `
from typedframes import BaseSchema, Column
from typedframes.polars import PolarsFrame
import polars as pl

class UserSchema(BaseSchema):
    user_id = Column(type=int)
    email = Column(type=str)

df: PolarsFrame[UserSchema] = pl.read_csv("users.csv")
result = df.filter(pl.col("user_id") > 10)
bad = df.filter(pl.col("username") == "alice")
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "username")
}

func TestPlColListInSelect(t *testing.T) {
	src := `
from typedframes import BaseSchema, Column
from typedframes.polars import PolarsFrame
import polars as pl

class SalesSchema(BaseSchema):
    region = Column(type=str)
    revenue = Column(type=float)

df: PolarsFrame[SalesSchema] = pl.read_csv("sales.csv")
result = df.select([pl.col("region"), pl.col("revenue")])
bad = df.select([pl.col("region"), pl.col("profit")])
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "profit")
}

func TestBareColImport(t *testing.T) {
	src := `
from typedframes import BaseSchema, Column
from typedframes.polars import PolarsFrame
from polars import col

class ItemSchema(BaseSchema):
    item_id = Column(type=int)
    price = Column(type=float)

df: PolarsFrame[ItemSchema] = None
result = df.select(col("price"))
bad = df.select(col("cost"))
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "cost")
}

func TestChainedPlCol(t *testing.T) {
	src := `
from typedframes import BaseSchema, Column
from typedframes.polars import PolarsFrame
import polars as pl

class StockSchema(BaseSchema):
    ticker = Column(type=str)
    close = Column(type=float)

df: PolarsFrame[StockSchema] = pl.read_csv("stocks.csv")
result = df.filter(pl.col("close").is_not_null())
bad = df.filter(pl.col("open").is_not_null())
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "open")
}

func TestPlColSkippedOnUntrackedVariable(t *testing.T) {
	src := `
import polars as pl

df = some_function()
result = df.filter(pl.col("nonexistent_column") > 0)
`
	assert.Empty(t, check(t, src))
}

func TestBareIgnoreComment(t *testing.T) {
	src := `
from typedframes import BaseSchema, Column

class S(BaseSchema):
    user_id = Column(type=int)

import pandas as pd
df = pd.read_csv("data.csv", usecols=["user_id"])
print(df["revenue"])  # typedframes: ignore
`
	assert.Empty(t, check(t, src))
}

func TestIgnoreSpecificCode(t *testing.T) {
	src := `
from typedframes import BaseSchema, Column

class S(BaseSchema):
    user_id = Column(type=int)

import pandas as pd
df = pd.read_csv("data.csv", usecols=["user_id"])
print(df["revenue"])  # typedframes: ignore[unknown-column]
`
	assert.Empty(t, check(t, src))
}

func TestIgnoreMismatchedCodeDoesNotSuppress(t *testing.T) {
	src := `
from typedframes import BaseSchema, Column

class S(BaseSchema):
    user_id = Column(type=int)

import pandas as pd
df = pd.read_csv("data.csv", usecols=["user_id"])
print(df["revenue"])  # typedframes: ignore[dropped-unknown-column]
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Equal(t, CodeUnknownColumn, diags[0].Code)
}

func TestIgnoreCommaSeparatedCodes(t *testing.T) {
	src := `
from typedframes import BaseSchema, Column

class S(BaseSchema):
    user_id = Column(type=int)

import pandas as pd
df = pd.read_csv("data.csv", usecols=["user_id"])
print(df["revenue"])  # typedframes: ignore[unknown-column, dropped-unknown-column]
`
	assert.Empty(t, check(t, src))
}

func TestBranchesVisitedSequentially(t *testing.T) {
	src := `
import pandas as pd

if cond:
    df = pd.read_csv("a.csv", usecols=["a"])
else:
    df = pd.read_csv("b.csv", usecols=["b"])
print(df["b"])
print(df["a"])
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "'a'")
}

func TestQuotedTypeHint(t *testing.T) {
	src := `
from typedframes import BaseSchema, Column

class UserSchema(BaseSchema):
    user_id = Column(type=int)

df: "DataFrame[UserSchema]" = load()
print(df["user_id"])
print(df["nope"])
`
	diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "nope")
}

func TestSeededSchemasFromIndex(t *testing.T) {
	a := New()
	a.AddSchema("Imported", []string{"x", "y"})
	a.AddFunction("load_things", "Imported")
	diags, err := a.Check([]byte(`
df = load_things()
print(df["x"])
print(df["z"])
`))
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "'z'")
	assert.Contains(t, diags[0].Message, "Imported")
}

func TestCheckIsDeterministic(t *testing.T) {
	src := `
from typedframes import BaseSchema, Column

class S(BaseSchema):
    a = Column(type=int)
    b = Column(type=str)

df: DataFrame[S] = load()
print(df["a"])
print(df["zz"])
print(df.bb)
`
	first := check(t, src)
	second := check(t, src)
	assert.Equal(t, first, second)
	require.Len(t, first, 2)
}

func TestVariousBenignStatements(t *testing.T) {
	src := `
class Other: pass
def func(): pass
x = 1
`
	assert.Empty(t, check(t, src))
}

func TestParseErrorIsFatal(t *testing.T) {
	_, err := New().Check([]byte("def broken(:\n"))
	require.Error(t, err)
}
