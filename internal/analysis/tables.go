package analysis

// reservedMethods are pandas/polars dataframe methods and properties. A
// schema column with one of these names would shadow the method under
// attribute access, so declaring one is an error; conversely an attribute
// access with one of these names is never treated as a column read.
var reservedMethods = map[string]bool{
	"shape": true, "columns": true, "index": true, "iloc": true,
	"loc": true, "head": true, "tail": true, "describe": true,
	"info": true, "set_index": true, "merge": true, "concat": true,
	"join": true, "filter": true, "select": true, "with_columns": true,
	"group_by": true, "groupby": true, "agg": true, "sort": true,
	"sort_values": true, "drop": true, "rename": true, "apply": true,
	"map": true, "pipe": true, "transform": true, "to_pandas": true,
	"to_df": true, "schema": true, "dtypes": true, "dtype": true,
	"cast": true, "lazy": true, "collect": true, "to_dict": true,
	"to_list": true, "to_numpy": true, "to_arrow": true,
	"write_csv": true, "write_parquet": true, "clone": true,
	"clear": true, "extend": true, "insert": true, "item": true,
	"n_chunks": true, "null_count": true, "estimated_size": true,
	"width": true, "height": true, "rows": true, "row": true,
	"get_column": true, "get_columns": true, "explode": true,
	"unnest": true, "pivot": true, "unpivot": true, "melt": true,
	"sample": true, "slice": true, "limit": true, "unique": true,
	"n_unique": true, "value_counts": true, "is_empty": true,
	"is_duplicated": true, "unique_counts": true, "mean": true,
	"sum": true, "min": true, "max": true, "std": true, "var": true,
	"median": true, "quantile": true, "fill_null": true,
	"fill_nan": true, "interpolate": true, "shift": true, "diff": true,
	"pct_change": true, "rolling": true, "ewm": true, "count": true,
	"first": true, "last": true, "len": true, "all": true, "any": true,
	"copy": true, "values": true, "T": true, "axes": true,
	"empty": true, "ndim": true, "size": true, "keys": true,
	"items": true, "pop": true, "update": true, "get": true,
	"add": true, "sub": true, "mul": true, "div": true, "mod": true,
	"pow": true, "abs": true, "round": true, "floor": true,
	"ceil": true, "clip": true, "corr": true, "cov": true,
}

// loadFunctions are pandas/polars readers that produce a dataframe whose
// columns are only knowable from call keywords.
var loadFunctions = map[string]bool{
	"read_csv": true, "read_parquet": true, "read_json": true,
	"read_excel": true, "read_sql": true, "read_sql_query": true,
	"read_sql_table": true, "read_html": true, "read_feather": true,
	"read_hdf": true, "read_orc": true, "read_clipboard": true,
	"read_ndjson": true, "read_avro": true, "read_ipc": true,
	"scan_csv": true, "scan_parquet": true, "scan_json": true,
	"scan_ndjson": true, "scan_ipc": true,
}

// loadModules are the receiver names a loader call is recognized on.
var loadModules = map[string]bool{
	"pd": true, "pandas": true, "pl": true, "polars": true,
}

// rowPassthroughMethods keep the column set intact, so the receiver's
// schema propagates to the result unchanged.
var rowPassthroughMethods = map[string]bool{
	"filter": true, "query": true, "head": true, "tail": true,
	"sample": true, "sort_values": true, "sort": true,
	"reset_index": true, "nlargest": true, "nsmallest": true,
	"fillna": true, "dropna": true, "ffill": true, "bfill": true,
}

// isSchemaBase reports whether a base class name marks a schema class.
func isSchemaBase(name string) bool {
	switch name {
	case "BaseSchema", "DataFrameModel", "DataFrame", "BaseFrame":
		return true
	}
	return false
}

// isFrameType reports whether a type name is a dataframe wrapper that
// takes a schema parameter.
func isFrameType(name string) bool {
	switch name {
	case "DataFrame", "PandasFrame", "PolarsFrame":
		return true
	}
	return false
}
