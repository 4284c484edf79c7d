package types

// OID is a PostgreSQL object identifier. Type OIDs identify both
// built-in and user-defined types in pg_catalog.pg_type.
type OID uint32

// Built-in OIDs for the scalar types spec.md requires coverage of.
// Values match pg_type.oid in every stock PostgreSQL installation.
const (
	OIDBool        OID = 16
	OIDBytea       OID = 17
	OIDChar        OID = 18
	OIDName        OID = 19
	OIDInt8        OID = 20
	OIDInt2        OID = 21
	OIDInt4        OID = 23
	OIDText        OID = 25
	OIDOID         OID = 26
	OIDJSON        OID = 114
	OIDXML         OID = 142
	OIDPoint       OID = 600
	OIDLine        OID = 628
	OIDCIDR        OID = 650
	OIDFloat4      OID = 700
	OIDFloat8      OID = 701
	OIDLseg        OID = 601
	OIDBox         OID = 603
	OIDPath        OID = 602
	OIDPolygon     OID = 604
	OIDCircle      OID = 718
	OIDUnknown     OID = 705
	OIDMoney       OID = 790
	OIDMacaddr     OID = 829
	OIDInet        OID = 869
	OIDBpchar      OID = 1042
	OIDVarchar     OID = 1043
	OIDDate        OID = 1082
	OIDTime        OID = 1083
	OIDTimestamp   OID = 1114
	OIDTimestamptz OID = 1184
	OIDInterval    OID = 1186
	OIDTimetz      OID = 1266
	OIDBit         OID = 1560
	OIDVarbit      OID = 1562
	OIDNumeric     OID = 1700
	OIDUUID        OID = 2950
	OIDJSONB       OID = 3802

	// Array OIDs for the above (pg_type._<name>).
	OIDBoolArray        OID = 1000
	OIDInt2Array        OID = 1005
	OIDInt4Array        OID = 1007
	OIDTextArray        OID = 1009
	OIDInt8Array        OID = 1016
	OIDFloat4Array      OID = 1021
	OIDFloat8Array      OID = 1022
	OIDVarcharArray     OID = 1015
	OIDUUIDArray        OID = 2951
	OIDJSONArray        OID = 199
	OIDJSONBArray       OID = 3807
	OIDNumericArray     OID = 1231
	OIDTimestampArray   OID = 1115
	OIDTimestamptzArray OID = 1185
)
