package ldap

// LDAPResult codes, RFC 4511 section 4.1.9 and subsequent RFCs.
const (
	ResultSuccess                      = 0
	ResultOperationsError              = 1
	ResultProtocolError                = 2
	ResultTimeLimitExceeded            = 3
	ResultSizeLimitExceeded            = 4
	ResultCompareFalse                 = 5
	ResultCompareTrue                  = 6
	ResultAuthMethodNotSupported       = 7
	ResultStrongerAuthRequired         = 8
	ResultReferral                     = 10
	ResultAdminLimitExceeded           = 11
	ResultUnavailableCriticalExtension = 12
	ResultConfidentialityRequired      = 13
	ResultSASLBindInProgress           = 14
	ResultNoSuchAttribute              = 16
	ResultUndefinedAttributeType       = 17
	ResultInappropriateMatching        = 18
	ResultConstraintViolation          = 19
	ResultAttributeOrValueExists       = 20
	ResultInvalidAttributeSyntax       = 21
	ResultNoSuchObject                 = 32
	ResultAliasProblem                 = 33
	ResultInvalidDNSyntax              = 34
	ResultAliasDereferencingProblem    = 36
	ResultInappropriateAuthentication  = 48
	ResultInvalidCredentials           = 49
	ResultInsufficientAccessRights     = 50
	ResultBusy                         = 51
	ResultUnavailable                  = 52
	ResultUnwillingToPerform           = 53
	ResultLoopDetect                   = 54
	ResultNamingViolation              = 64
	ResultObjectClassViolation         = 65
	ResultNotAllowedOnNonLeaf          = 66
	ResultNotAllowedOnRDN              = 67
	ResultEntryAlreadyExists           = 68
	ResultObjectClassModsProhibited    = 69
	ResultAffectsMultipleDSAs          = 71
	ResultOther                        = 80
)

var resultName = map[int]string{
	ResultSuccess:                      "success",
	ResultOperationsError:              "operationsError",
	ResultProtocolError:                "protocolError",
	ResultTimeLimitExceeded:            "timeLimitExceeded",
	ResultSizeLimitExceeded:            "sizeLimitExceeded",
	ResultCompareFalse:                 "compareFalse",
	ResultCompareTrue:                  "compareTrue",
	ResultAuthMethodNotSupported:       "authMethodNotSupported",
	ResultStrongerAuthRequired:         "strongerAuthRequired",
	ResultReferral:                     "referral",
	ResultAdminLimitExceeded:           "adminLimitExceeded",
	ResultUnavailableCriticalExtension: "unavailableCriticalExtension",
	ResultConfidentialityRequired:      "confidentialityRequired",
	ResultSASLBindInProgress:           "saslBindInProgress",
	ResultNoSuchAttribute:              "noSuchAttribute",
	ResultUndefinedAttributeType:       "undefinedAttributeType",
	ResultInappropriateMatching:        "inappropriateMatching",
	ResultConstraintViolation:          "constraintViolation",
	ResultAttributeOrValueExists:       "attributeOrValueExists",
	ResultInvalidAttributeSyntax:       "invalidAttributeSyntax",
	ResultNoSuchObject:                 "noSuchObject",
	ResultAliasProblem:                 "aliasProblem",
	ResultInvalidDNSyntax:              "invalidDNSyntax",
	ResultAliasDereferencingProblem:    "aliasDereferencingProblem",
	ResultInappropriateAuthentication:  "inappropriateAuthentication",
	ResultInvalidCredentials:           "invalidCredentials",
	ResultInsufficientAccessRights:     "insufficientAccessRights",
	ResultBusy:                         "busy",
	ResultUnavailable:                  "unavailable",
	ResultUnwillingToPerform:           "unwillingToPerform",
	ResultLoopDetect:                   "loopDetect",
	ResultNamingViolation:              "namingViolation",
	ResultObjectClassViolation:         "objectClassViolation",
	ResultNotAllowedOnNonLeaf:          "notAllowedOnNonLeaf",
	ResultNotAllowedOnRDN:              "notAllowedOnRDN",
	ResultEntryAlreadyExists:           "entryAlreadyExists",
	ResultObjectClassModsProhibited:    "objectClassModsProhibited",
	ResultAffectsMultipleDSAs:          "affectsMultipleDSAs",
	ResultOther:                        "other",
}

// ResultCodeName returns the RFC 4511 mnemonic for a result code, or
// "unknown" if this client doesn't recognize it.
func ResultCodeName(code int) string {
	if name, ok := resultName[code]; ok {
		return name
	}
	return "unknown"
}
