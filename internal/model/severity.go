package model

// Severity represents the risk level of a finding.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// human-readable output when needed.
type Severity int

const (
	// SeverityInfo indicates informational findings with no direct security impact.
	// Examples: HASSH fingerprint, Dropbear detection.
	SeverityInfo Severity = iota

	// SeverityLow indicates minor issues with limited impact.
	// Examples: operating system disclosed in the banner, pre-auth compression.
	SeverityLow

	// SeverityMedium indicates moderate issues that warrant attention.
	// Examples: SHA-1 MACs, outdated OpenSSH, missing strict key exchange.
	SeverityMedium

	// SeverityHigh indicates serious issues that weaken the transport.
	// Examples: SHA-1 key exchange, RC4 and 3DES ciphers, SSH-1 compatibility.
	SeverityHigh

	// SeverityCritical indicates issues that defeat transport protection entirely.
	// Examples: the "none" cipher or MAC, SSH-1 only servers.
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Finding types produced by the analysis and history steps.
const (
	FindingSSH1Only             = "ssh1_only"
	FindingCipherNone           = "cipher_none"
	FindingMACNone              = "mac_none"
	FindingSSH1Compatible       = "ssh1_compatible"
	FindingWeakKex              = "weak_kex"
	FindingWeakCipher           = "weak_cipher"
	FindingWeakMAC              = "weak_mac"
	FindingWeakHostKey          = "weak_host_key"
	FindingTerrapin             = "terrapin_no_strict_kex"
	FindingOutdatedOpenSSH      = "outdated_openssh"
	FindingHandshakeChanged     = "handshake_changed"
	FindingPreAuthCompression   = "pre_auth_compression"
	FindingOSDisclosure         = "os_disclosure"
	FindingIdentifierChanged    = "identifier_changed"
	FindingVersionDisclosure    = "version_disclosure"
	FindingDropbear             = "dropbear_detected"
	FindingUnsupportedAlgorithm = "unrecognized_algorithm"
	FindingHASSH                = "hassh_fingerprint"
)

// FindingInfo contains metadata about a finding type including severity,
// impact description, and remediation recommendation.
type FindingInfo struct {
	Severity       Severity
	Impact         string
	Recommendation string
}

// findingInfoMapping maps finding types to their metadata.
// This centralized mapping ensures consistent risk assessment across the application.
//
// Design decision: We use a map rather than embedding severity in each finding type
// because:
// 1. It allows updating risk assessments without modifying type definitions
// 2. It provides a single source of truth for risk levels
// 3. It makes it easy to generate severity documentation
var findingInfoMapping = map[string]FindingInfo{
	// CRITICAL
	FindingSSH1Only: {
		Severity:       SeverityCritical,
		Impact:         "The server only speaks SSH protocol 1, which is cryptographically broken and allows session hijacking.",
		Recommendation: "Replace the server software with one that supports SSH protocol 2.0 only.",
	},
	FindingCipherNone: {
		Severity:       SeverityCritical,
		Impact:         "The server offers the \"none\" cipher, so a session may run without any encryption.",
		Recommendation: "Remove \"none\" from the server's Ciphers configuration.",
	},
	FindingMACNone: {
		Severity:       SeverityCritical,
		Impact:         "The server offers the \"none\" MAC, so session traffic may be modified without detection.",
		Recommendation: "Remove \"none\" from the server's MACs configuration.",
	},

	// HIGH
	FindingSSH1Compatible: {
		Severity:       SeverityHigh,
		Impact:         "The server announces protocol 1.99 and still accepts SSH protocol 1 clients.",
		Recommendation: "Disable SSH protocol 1 support so that only 2.0 is announced.",
	},
	FindingWeakKex: {
		Severity:       SeverityHigh,
		Impact:         "A key exchange method based on SHA-1 or a small Diffie-Hellman group is offered and may be negotiated by old clients.",
		Recommendation: "Restrict KexAlgorithms to curve25519, sntrup/mlkem hybrids and SHA-2 Diffie-Hellman groups.",
	},
	FindingWeakCipher: {
		Severity:       SeverityHigh,
		Impact:         "A cipher with known weaknesses (RC4, 3DES, Blowfish, CBC mode) is offered.",
		Recommendation: "Restrict Ciphers to chacha20-poly1305, AES-GCM and AES-CTR.",
	},

	// MEDIUM
	FindingWeakMAC: {
		Severity:       SeverityMedium,
		Impact:         "A MAC based on MD5, truncated SHA-1 or encrypt-and-MAC SHA-1 is offered.",
		Recommendation: "Restrict MACs to the SHA-2 encrypt-then-MAC variants.",
	},
	FindingWeakHostKey: {
		Severity:       SeverityMedium,
		Impact:         "A host key algorithm using DSA or SHA-1 signatures is offered.",
		Recommendation: "Use ed25519 or rsa-sha2 host keys and remove ssh-dss and ssh-rsa.",
	},
	FindingTerrapin: {
		Severity:       SeverityMedium,
		Impact:         "The server offers chacha20-poly1305 or an encrypt-then-MAC mode without strict key exchange, which leaves it exposed to prefix truncation (CVE-2023-48795).",
		Recommendation: "Upgrade to a release that implements kex-strict-s-v00@openssh.com.",
	},
	FindingOutdatedOpenSSH: {
		Severity:       SeverityMedium,
		Impact:         "The OpenSSH release announced in the identifier is old and has published vulnerabilities.",
		Recommendation: "Upgrade OpenSSH to a supported release.",
	},
	FindingHandshakeChanged: {
		Severity:       SeverityMedium,
		Impact:         "The algorithms offered by the server differ from the previous probe. This can indicate an upgrade, a configuration change, or a different host answering.",
		Recommendation: "Confirm that the change was expected.",
	},

	// LOW
	FindingPreAuthCompression: {
		Severity:       SeverityLow,
		Impact:         "zlib compression is offered before authentication, exposing the decompressor to unauthenticated peers.",
		Recommendation: "Offer only \"none\" or zlib@openssh.com (delayed compression).",
	},
	FindingOSDisclosure: {
		Severity:       SeverityLow,
		Impact:         "The identification string reveals the operating system distribution.",
		Recommendation: "Disable distribution banners (for example DebianBanner no).",
	},
	FindingIdentifierChanged: {
		Severity:       SeverityLow,
		Impact:         "The identification string differs from the previous probe.",
		Recommendation: "Confirm that the server software change was expected.",
	},

	// INFO
	FindingVersionDisclosure: {
		Severity:       SeverityInfo,
		Impact:         "The server software and version are announced in the identification string.",
		Recommendation: "This is required by the protocol. Keep the software up to date.",
	},
	FindingDropbear: {
		Severity:       SeverityInfo,
		Impact:         "Dropbear is commonly used on embedded devices and routers.",
		Recommendation: "Make sure the device firmware receives security updates.",
	},
	FindingUnsupportedAlgorithm: {
		Severity:       SeverityInfo,
		Impact:         "The server offers an algorithm that common client libraries do not implement.",
		Recommendation: "No action needed unless the algorithm is unexpected.",
	},
	FindingHASSH: {
		Severity:       SeverityInfo,
		Impact:         "The HASSH fingerprint identifies the server implementation and can correlate hosts across addresses.",
		Recommendation: "No action needed.",
	},
}

// GetSeverity returns the severity level for a finding type.
// Returns SeverityInfo if the finding type is not in the mapping.
func GetSeverity(findingType string) Severity {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info.Severity
	}
	return SeverityInfo
}

// GetFindingInfo returns the full finding information for a finding type.
// Returns a default FindingInfo with SeverityInfo if the type is not in the mapping.
func GetFindingInfo(findingType string) FindingInfo {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info
	}
	return FindingInfo{
		Severity:       SeverityInfo,
		Impact:         "Unknown finding type. Review manually.",
		Recommendation: "Investigate the finding and assess risk.",
	}
}
