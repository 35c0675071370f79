package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SecretHash computes the signing token the identity provider requires on
// every sensitive call: base64(HMAC-SHA256(clientSecret, username+clientID)).
// It binds the username to this application's client, so a request signed for
// one client cannot be replayed against another.
func SecretHash(username, clientID, clientSecret string) string {
	mac := hmac.New(sha256.New, []byte(clientSecret))
	mac.Write([]byte(username + clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
