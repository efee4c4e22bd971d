// Copyright 2026 The Witness Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package features

import (
	"math"
	"strings"
)

// Scores produced by CredentialPrefixScore. Changing any of these, or the
// prefix tables below, changes the meaning of a trained model's prefix_score
// feature, so models must be retrained afterwards.
const (
	prefixLeadingScore      = 1.0
	prefixLeadingShortScore = 0.75
	prefixEmbeddedScore     = 0.5
	credentialMarkerScore   = 0.25

	// minPrefixBody is how many characters must follow a leading prefix for the
	// string to count as a full token.
	minPrefixBody = 8
)

// credentialPrefixes are case sensitive vendor token prefixes.
var credentialPrefixes = []string{
	// AWS access key ids
	"AKIA", "ASIA", "AGPA", "AIDA", "AROA", "ANPA", "ANVA", "A3T",
	// GitHub
	"ghp_", "gho_", "ghu_", "ghs_", "ghr_", "github_pat_",
	// GitLab
	"glpat-", "gldt-", "glrt-", "GR1348941",
	// Slack
	"xoxb-", "xoxp-", "xoxa-", "xoxr-", "xoxs-", "xapp-",
	// Stripe
	"sk_live_", "sk_test_", "rk_live_", "rk_test_", "pk_live_", "whsec_",
	// Google
	"AIza", "ya29.", "GOCSPX-",
	// OpenAI, Anthropic, Hugging Face
	"sk-proj-", "sk-ant-", "sk-", "hf_",
	// package registries
	"npm_", "pypi-", "rubygems_",
	// misc SaaS
	"SG.", "shpat_", "shpss_", "dop_v1_", "doo_v1_", "xkeysib-", "key-",
	"EAACEdEose0cBA", "sq0atp-", "sq0csp-", "AC", "SK", "lin_api_", "pscale_tkn_",
	"-----BEGIN",
}

// weakPrefixes are only meaningful when they start the string; they are too
// short or too common to count when embedded.
var weakPrefixes = map[string]struct{}{
	"AC":   {},
	"SK":   {},
	"sk-":  {},
	"key-": {},
	"A3T":  {},
}

// credentialMarkers are lower-case substrings that hint a literal carries a
// credential inline, e.g. "Bearer abc..." or "password=...".
var credentialMarkers = []string{"key", "token", "secret", "passw", "auth", "bearer"}

// CredentialPrefixScore scores how much s looks like a vendor token:
//
//   - 1.0 when s starts with a known prefix followed by at least 8 characters,
//   - 0.75 when s starts with a known prefix followed by fewer characters,
//   - 0.5 when a strong known prefix appears after the start of s,
//   - 0.25 when lower-cased s contains a credential marker word,
//   - 0 otherwise.
//
// The two letter prefixes AC and SK (Twilio) only count when the rest of the
// string is hexadecimal.
func CredentialPrefixScore(s string) float64 {
	best := 0.0
	for _, prefix := range credentialPrefixes {
		if strings.HasPrefix(s, prefix) {
			body := s[len(prefix):]
			if (prefix == "AC" || prefix == "SK") && !isHex(body) {
				continue
			}

			score := prefixLeadingShortScore
			if len([]rune(body)) >= minPrefixBody {
				score = prefixLeadingScore
			}
			best = math.Max(best, score)
			continue
		}

		if _, weak := weakPrefixes[prefix]; weak {
			continue
		}

		if idx := strings.Index(s, prefix); idx > 0 {
			best = math.Max(best, prefixEmbeddedScore)
		}
	}

	if best > 0 {
		return best
	}

	lower := strings.ToLower(s)
	for _, marker := range credentialMarkers {
		if strings.Contains(lower, marker) {
			return credentialMarkerScore
		}
	}

	return 0
}

func isHex(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}

	return true
}
