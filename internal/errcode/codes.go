package errcode

import "net/http"

// Declarations below are grouped by status. Codes are stable once released;
// add new ones rather than renumbering.
var (
	// 401
	AuthnRequired = declare(KindAuthenticationRequired, http.StatusUnauthorized,
		"CH401-AU-0001", "Authentication required.")
	TokenInvalid = declare(KindAuthenticationRequired, http.StatusUnauthorized,
		"CH401-AU-0002", "Bearer token is missing or could not be parsed.")

	// 403
	PrivilegeLacking = declare(KindPrivilegeLacking, http.StatusForbidden,
		"CH403-AC-0001", "Necessary privilege is lacking.")
	SchemaAuthzLevelInsufficient = declare(KindSchemaMismatch, http.StatusForbidden,
		"CH403-AC-0002", "Insufficient schema authorization level.")
	SchemaAuthRequired = declare(KindSchemaMismatch, http.StatusForbidden,
		"CH403-AC-0003", "Schema authentication is required to access this resource.")
	SchemaMismatch = declare(KindSchemaMismatch, http.StatusForbidden,
		"CH403-AC-0004", "Schema of the token does not match the requested schema: %s")

	// 404
	CellNotFound = declare(KindNotFound, http.StatusNotFound,
		"CH404-CL-0001", "Cell not found: %s")
	BoxNotFound = declare(KindNotFound, http.StatusNotFound,
		"CH404-CL-0002", "Box not found: %s")
	MessageNotFound = declare(KindNotFound, http.StatusNotFound,
		"CH404-MC-0001", "Message not found: %s")
	EntityNotFound = declare(KindNotFound, http.StatusNotFound,
		"CH404-GR-0001", "%s not found: %s")

	// 400
	MessageCommandInvalid = declare(KindMalformedRequest, http.StatusBadRequest,
		"CH400-MC-0001", "Request field format error: %s")
	PrincipalNeitherHrefNorAll = declare(KindMalformedRequest, http.StatusBadRequest,
		"CH400-AC-0001", "Principal is neither href nor all: %s")
	AclMalformed = declare(KindMalformedRequest, http.StatusBadRequest,
		"CH400-AC-0002", "ACL document is malformed: %s")
	AclBoxInconsistent = declare(KindMalformedRequest, http.StatusBadRequest,
		"CH400-AC-0003", "Box specified in ACL href does not match the target box: %s")
	PrivilegeUnknown = declare(KindMalformedRequest, http.StatusBadRequest,
		"CH400-AC-0004", "Unknown privilege: %s")
	BoxForClassURLNotExists = declare(KindMalformedRequest, http.StatusBadRequest,
		"CH400-MC-0002", "Box that matches the schema of the class URL does not exist: %s")
	RequestMalformed = declare(KindMalformedRequest, http.StatusBadRequest,
		"CH400-CM-0001", "Request is malformed: %s")

	// 409
	EntityAlreadyExists = declare(KindConflict, http.StatusConflict,
		"CH409-GR-0001", "%s already exists: %s")
	RequestEntityNotExists = declare(KindConflict, http.StatusConflict,
		"CH409-MC-0001", "Entity required by the request object does not exist: %s")

	// 500
	ServerFault = declare(KindServerFault, http.StatusInternalServerError,
		"CH500-CM-0001", "Unexpected server error.")
)
