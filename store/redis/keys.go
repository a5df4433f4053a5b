package redis

// Key prefixes for primary entity storage.
const (
	prefixEndpoint = "conduit:ep:"
	prefixEntry    = "conduit:out:"
	prefixDLQ      = "conduit:dlq:"
)

// Key prefixes for sorted set indexes.
const (
	zEndpointTenant = "conduit:z:ep:tenant:" // + tenant ID
	zEntryEP        = "conduit:z:out:ep:"    // + endpoint ID
	zEntryPend      = "conduit:z:out:pending"
	zDLQAll         = "conduit:z:dlq:all"
	zDLQTenant      = "conduit:z:dlq:tenant:" // + tenant ID
	zDLQEndpoint    = "conduit:z:dlq:ep:"     // + endpoint ID
)

// Key prefixes for set indexes.
const (
	sEndpointEnabled = "conduit:s:ep:tenant:" // + tenantID + ":enabled"
)

// entityKey returns the primary key for an entity.
func entityKey(prefix, id string) string {
	return prefix + id
}

// enabledSetKey returns the set key for enabled endpoints of a tenant.
// The empty tenant holds global endpoints.
func enabledSetKey(tenantID string) string {
	return sEndpointEnabled + tenantID + ":enabled"
}
