package protocol

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/nao1215/sshprobe/internal/handshake"
	"github.com/nao1215/sshprobe/internal/model"
)

const (
	// strictKexServerMarker is the pseudo-algorithm a server adds to its kex
	// list when it implements the CVE-2023-48795 countermeasure.
	strictKexServerMarker = "kex-strict-s-v00@openssh.com"

	// chachaPoly is the cipher affected by prefix truncation without strict kex.
	chachaPoly = "chacha20-poly1305@openssh.com"

	// etmSuffix marks encrypt-then-MAC algorithms.
	etmSuffix = "-etm@openssh.com"

	// preAuthZlib is compression that starts before authentication.
	// zlib@openssh.com is delayed until after user authentication.
	preAuthZlib = "zlib"

	// algorithmNone disables a cipher or MAC.
	algorithmNone = "none"

	// bannerLocation is the location recorded for identifier findings.
	bannerLocation = "identifier"
)

// oldestMaintainedOpenSSH is the oldest release treated as current.
// 7.4 removed SSH-1 support and is the oldest release still shipped by
// maintained enterprise distributions.
var oldestMaintainedOpenSSH = [2]int{7, 4}

// weakAlgorithms supplements ssh.InsecureAlgorithms with algorithms that
// golang.org/x/crypto/ssh never implemented and therefore does not list.
var weakAlgorithms = struct {
	kex, ciphers, macs, hostKeys []string
}{
	kex: []string{
		"diffie-hellman-group-exchange-sha1",
		"gss-group1-sha1-toWM5Slw5Ew8Mqkay+al2g==",
		"rsa1024-sha1",
	},
	ciphers: []string{
		"aes192-cbc",
		"aes256-cbc",
		"blowfish-cbc",
		"cast128-cbc",
		"des-cbc",
		"rijndael-cbc@lysator.liu.se",
	},
	macs: []string{
		"hmac-md5",
		"hmac-md5-96",
		"hmac-md5-etm@openssh.com",
		"hmac-md5-96-etm@openssh.com",
		"hmac-sha1",
		"hmac-sha1-96-etm@openssh.com",
		"hmac-ripemd160",
		"umac-64@openssh.com",
	},
	hostKeys: []string{
		"ssh-dss",
		"ssh-rsa",
	},
}

// pseudoAlgorithms are extension markers that appear in name-lists but are
// not algorithms.
var pseudoAlgorithms = []string{
	strictKexServerMarker,
	"kex-strict-c-v00@openssh.com",
	"ext-info-s",
	"ext-info-c",
}

// Analyze derives findings from the identifier and the KEXINIT of report.
// It only reads wire data already in the report, so stored reports can be
// analyzed again.
func Analyze(report *model.ProbeReport) {
	AnalyzeBanner(report)
	AnalyzeAlgorithms(report)
}

// AnalyzeBanner analyzes the identification string.
//
// SSH identifiers typically have the format: SSH-2.0-OpenSSH_8.9p1 Ubuntu-3ubuntu0.1
// This reveals:
//  1. SSH protocol version (should be 2.0)
//  2. Server software and version (OpenSSH, Dropbear, etc.)
//  3. Potentially the OS distribution
func AnalyzeBanner(report *model.ProbeReport) {
	v := report.Version
	if v == nil {
		return
	}

	switch {
	case v.ProtoVersion == "1.99":
		report.AddFinding(model.NewFinding(model.FindingSSH1Compatible,
			"SSH Protocol 1 Compatibility",
			"The server announces protocol 1.99 and accepts SSH-1 clients.",
			report.Identifier, bannerLocation))
	case strings.HasPrefix(v.ProtoVersion, "1."):
		report.AddFinding(model.NewFinding(model.FindingSSH1Only,
			"SSH Protocol 1 Only",
			"The server does not support SSH protocol 2.0.",
			report.Identifier, bannerLocation))
	}

	software := v.SoftwareVersion
	if v.Comments != "" {
		software += " " + v.Comments
	}

	report.AddFinding(model.NewFinding(model.FindingVersionDisclosure,
		"SSH Software Version Disclosed",
		"The identification string names the server software.",
		software, bannerLocation))

	if os := detectOS(software); os != "" {
		report.AddFinding(model.NewFinding(model.FindingOSDisclosure,
			"Operating System Detected from Identifier",
			fmt.Sprintf("The identifier reveals the operating system: %s.", os),
			os, bannerLocation))
	}

	lower := strings.ToLower(v.SoftwareVersion)
	if version, ok := parseOpenSSHVersion(lower); ok && versionBefore(version, oldestMaintainedOpenSSH) {
		report.AddFinding(model.NewFinding(model.FindingOutdatedOpenSSH,
			"Outdated OpenSSH Version",
			fmt.Sprintf("OpenSSH %d.%d predates %d.%d.", version[0], version[1], oldestMaintainedOpenSSH[0], oldestMaintainedOpenSSH[1]),
			v.SoftwareVersion, bannerLocation))
	}

	if strings.Contains(lower, "dropbear") {
		report.AddFinding(model.NewFinding(model.FindingDropbear,
			"Dropbear SSH Server Detected",
			"Dropbear is commonly used on embedded devices and routers.",
			v.SoftwareVersion, bannerLocation))
	}
}

// detectOS returns the distribution named in the software/comments part.
func detectOS(software string) string {
	lower := strings.ToLower(software)

	switch {
	case strings.Contains(lower, "ubuntu"):
		return "Ubuntu Linux"
	case strings.Contains(lower, "debian"):
		return "Debian Linux"
	case strings.Contains(lower, "raspbian"):
		return "Raspbian (Raspberry Pi)"
	case strings.Contains(lower, "freebsd"):
		return "FreeBSD"
	case strings.Contains(lower, "openbsd"):
		return "OpenBSD"
	case strings.Contains(lower, "netbsd"):
		return "NetBSD"
	case strings.Contains(lower, "centos"):
		return "CentOS Linux"
	case strings.Contains(lower, "fedora"):
		return "Fedora Linux"
	default:
		return ""
	}
}

// parseOpenSSHVersion extracts major and minor from "openssh_8.9p1".
func parseOpenSSHVersion(lower string) ([2]int, bool) {
	rest, ok := strings.CutPrefix(lower, "openssh_")
	if !ok {
		return [2]int{}, false
	}

	majorStr, rest, ok := strings.Cut(rest, ".")
	if !ok {
		return [2]int{}, false
	}
	major, err := strconv.Atoi(majorStr)
	if err != nil {
		return [2]int{}, false
	}

	end := strings.IndexFunc(rest, func(r rune) bool { return r < '0' || r > '9' })
	if end == -1 {
		end = len(rest)
	}
	minor, err := strconv.Atoi(rest[:end])
	if err != nil {
		return [2]int{}, false
	}

	return [2]int{major, minor}, true
}

// versionBefore reports whether v sorts before limit.
func versionBefore(v, limit [2]int) bool {
	return v[0] < limit[0] || (v[0] == limit[0] && v[1] < limit[1])
}

// AnalyzeAlgorithms analyzes the algorithm offer in the KEXINIT packet.
//
// Each name-list is checked against the algorithms golang.org/x/crypto/ssh
// classifies as insecure plus a table of legacy algorithms it never
// implemented. Algorithms neither list knows are reported as informational.
func AnalyzeAlgorithms(report *model.ProbeReport) {
	if report.KexInit == nil {
		return
	}
	kex := report.KexInit.KexData
	labels := handshake.NameListLabels

	insecure := ssh.InsecureAlgorithms()
	supported := ssh.SupportedAlgorithms()

	known := make(map[string]bool)
	for _, list := range [][]string{
		supported.KeyExchanges, supported.Ciphers, supported.MACs, supported.HostKeys,
		insecure.KeyExchanges, insecure.Ciphers, insecure.MACs, insecure.HostKeys,
		weakAlgorithms.kex, weakAlgorithms.ciphers, weakAlgorithms.macs, weakAlgorithms.hostKeys,
		pseudoAlgorithms, {algorithmNone, preAuthZlib, "zlib@openssh.com"},
	} {
		for _, name := range list {
			known[name] = true
		}
	}

	lists := kex.Lists()
	for i, list := range lists {
		for _, name := range list {
			if name != "" && !known[name] {
				report.AddFinding(model.NewFinding(model.FindingUnsupportedAlgorithm,
					"Unrecognized Algorithm",
					"The algorithm is not implemented by common client libraries.",
					name, labels[i]))
			}
		}
	}

	flag := func(list []string, label, findingType, title string, weak ...[]string) {
		for _, name := range list {
			for _, w := range weak {
				if slices.Contains(w, name) {
					report.AddFinding(model.NewFinding(findingType, title,
						fmt.Sprintf("%s offers %s.", label, name), name, label))
					break
				}
			}
		}
	}

	flag(kex.KexAlgorithms, labels[0], model.FindingWeakKex, "Weak Key Exchange",
		insecure.KeyExchanges, weakAlgorithms.kex)
	flag(kex.ServerHostKeyAlgorithms, labels[1], model.FindingWeakHostKey, "Weak Host Key Algorithm",
		insecure.HostKeys, weakAlgorithms.hostKeys)

	for i, list := range [][]string{kex.EncryptionClientToServer, kex.EncryptionServerToClient} {
		label := labels[2+i]
		flag(list, label, model.FindingWeakCipher, "Weak Cipher", insecure.Ciphers, weakAlgorithms.ciphers)
		flag(list, label, model.FindingCipherNone, "Unencrypted Transport Offered", []string{algorithmNone})
	}
	for i, list := range [][]string{kex.MACClientToServer, kex.MACServerToClient} {
		label := labels[4+i]
		flag(list, label, model.FindingWeakMAC, "Weak MAC", insecure.MACs, weakAlgorithms.macs)
		flag(list, label, model.FindingMACNone, "Unauthenticated Transport Offered", []string{algorithmNone})
	}
	for i, list := range [][]string{kex.CompressionClientToServer, kex.CompressionServerToClient} {
		flag(list, labels[6+i], model.FindingPreAuthCompression, "Pre-Authentication Compression", []string{preAuthZlib})
	}

	if terrapinExposed(kex) {
		report.AddFinding(model.NewFinding(model.FindingTerrapin,
			"Strict Key Exchange Not Supported",
			"The server offers a cipher mode affected by prefix truncation and does not announce "+strictKexServerMarker+".",
			strictKexServerMarker, labels[0]))
	}
}

// terrapinExposed reports whether k offers ChaCha20-Poly1305, or an
// encrypt-then-MAC algorithm together with a CBC cipher, without the
// strict key exchange marker.
func terrapinExposed(k handshake.KexData) bool {
	if slices.Contains(k.KexAlgorithms, strictKexServerMarker) {
		return false
	}

	ciphers := slices.Concat(k.EncryptionClientToServer, k.EncryptionServerToClient)
	if slices.Contains(ciphers, chachaPoly) {
		return true
	}

	hasCBC := slices.ContainsFunc(ciphers, func(c string) bool {
		return strings.Contains(c, "-cbc")
	})
	hasETM := slices.ContainsFunc(slices.Concat(k.MACClientToServer, k.MACServerToClient), func(m string) bool {
		return strings.HasSuffix(m, etmSuffix)
	})
	return hasCBC && hasETM
}
