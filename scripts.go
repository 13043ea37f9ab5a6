package luahook

// Bootstrap templates executed through lua_dostring. They are written for the
// Lua 3.1 dialect: no local functions, type() returns lowercase names.

// IOProbeScript sets IOStatusGlobal to "ready" when either the structured
// io table (io.open) or the legacy writeto/write pair is callable, and to
// "missing" otherwise.
//
// Reads: io, io.open, writeto, write. Writes: __telemetry_io_status.
const IOProbeScript = `__telemetry_io_status = "missing"
if type(io) == "table" and type(io.open) == "function" then
  __telemetry_io_status = "ready"
elseif type(writeto) == "function" and type(write) == "function" then
  __telemetry_io_status = "ready"
end
`

// StringAlias pairs a legacy global string primitive with its member in
// the structured string table.
type StringAlias struct {
	Global string
	Member string
}

// StringAliases lists the pairs back-filled by StringPatchScript.
var StringAliases = []StringAlias{
	{Global: "strsub", Member: "sub"},
	{Global: "strfind", Member: "find"},
	{Global: "strlen", Member: "len"},
	{Global: "strlower", Member: "lower"},
	{Global: "strupper", Member: "upper"},
}

// StringPatchScript back-fills missing legacy globals from the string table
// and missing string table members from legacy globals. The table is created
// when absent.
//
// Reads and writes: strsub, strfind, strlen, strlower, strupper and
// string.sub, string.find, string.len, string.lower, string.upper.
const StringPatchScript = `if type(string) == "table" then
  if type(strsub) ~= "function" and type(string.sub) == "function" then strsub = string.sub end
  if type(strfind) ~= "function" and type(string.find) == "function" then strfind = string.find end
  if type(strlen) ~= "function" and type(string.len) == "function" then strlen = string.len end
  if type(strlower) ~= "function" and type(string.lower) == "function" then strlower = string.lower end
  if type(strupper) ~= "function" and type(string.upper) == "function" then strupper = string.upper end
else
  string = {}
end
if type(string.sub) ~= "function" and type(strsub) == "function" then string.sub = strsub end
if type(string.find) ~= "function" and type(strfind) == "function" then string.find = strfind end
if type(string.len) ~= "function" and type(strlen) == "function" then string.len = strlen end
if type(string.lower) ~= "function" and type(strlower) == "function" then string.lower = strlower end
if type(string.upper) ~= "function" and type(strupper) == "function" then string.upper = strupper end
`
