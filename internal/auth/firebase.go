package auth

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidFirebaseToken はFirebase IDトークン検証の失敗を表す。
// 署名・audience・issuer・有効期限のどの検証で失敗したかは意図的に
// 区別しない（判別オラクル化の防止）。詳細はサーバーログにのみ残る。
var ErrInvalidFirebaseToken = errors.New("invalid firebase token")

// FirebaseIdentity は検証済みIDトークンから取り出したユーザー情報を表す。
type FirebaseIdentity struct {
	UID           string
	Email         string
	Name          string
	Picture       string
	EmailVerified bool
}

// FirebaseVerifier はFirebaseが発行した署名付きIDトークンを、
// Googleの公開鍵セット（ローテーションあり）に対して検証する。
//
// 公開鍵セットはHTTPレスポンスのmax-ageに従ってキャッシュされ、
// 期限内の検証ではネットワークアクセスは発生しない。
type FirebaseVerifier struct {
	projectID string
	certsURL  string
	client    *http.Client

	mu         sync.Mutex
	keys       map[string]*rsa.PublicKey
	keysExpiry time.Time
}

// defaultKeyTTL はCache-Controlが解釈できない場合の公開鍵キャッシュ期間。
const defaultKeyTTL = time.Hour

// NewFirebaseVerifier はFirebaseVerifierを生成する。
// clientには外向き通信用の防御付きHTTPクライアントを渡す。
func NewFirebaseVerifier(projectID, certsURL string, client *http.Client) *FirebaseVerifier {
	return &FirebaseVerifier{
		projectID: projectID,
		certsURL:  certsURL,
		client:    client,
	}
}

// Verify はFirebase IDトークンを検証し、含まれるユーザー情報を返す。
//
// 検証内容:
//   - トークンのkidヘッダーに対応する公開鍵によるRS256署名の検証
//   - audienceが設定済みプロジェクトIDと一致すること
//   - issuerが https://securetoken.google.com/<プロジェクトID> と一致すること
//   - 有効期限が検証時点より未来であること
//
// いずれかの検証に失敗した場合は常にErrInvalidFirebaseTokenを返す。
func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*FirebaseIdentity, error) {
	if v.projectID == "" {
		return nil, errors.New("firebase project ID is not configured")
	}

	if err := v.refreshKeys(ctx); err != nil {
		return nil, fmt.Errorf("failed to fetch firebase public keys: %w", err)
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(idToken, claims, v.keyForToken,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithAudience(v.projectID),
		jwt.WithIssuer("https://securetoken.google.com/"+v.projectID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		// 失敗理由はログにのみ残し、呼び出し元には一律のエラーを返す
		slog.Warn("firebase token verification failed",
			slog.String("error", err.Error()),
		)
		return nil, ErrInvalidFirebaseToken
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		slog.Warn("firebase token has no subject")
		return nil, ErrInvalidFirebaseToken
	}

	identity := &FirebaseIdentity{UID: sub}
	identity.Email, _ = claims["email"].(string)
	identity.Name, _ = claims["name"].(string)
	identity.Picture, _ = claims["picture"].(string)
	identity.EmailVerified, _ = claims["email_verified"].(bool)

	return identity, nil
}

// keyForToken はトークンのkidヘッダーに対応する公開鍵を返すキー解決関数。
func (v *FirebaseVerifier) keyForToken(token *jwt.Token) (any, error) {
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return nil, errors.New("token has no kid header")
	}

	v.mu.Lock()
	key, ok := v.keys[kid]
	v.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("unknown key ID: %s", kid)
	}

	return key, nil
}

// refreshKeys はキャッシュ期限切れの場合のみ公開鍵セットを再取得する。
func (v *FirebaseVerifier) refreshKeys(ctx context.Context) error {
	v.mu.Lock()
	fresh := v.keys != nil && time.Now().Before(v.keysExpiry)
	v.mu.Unlock()

	if fresh {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.certsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create key request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("key fetch failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read key response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("key fetch failed with status %d", resp.StatusCode)
	}

	var certs map[string]string
	if err := json.Unmarshal(body, &certs); err != nil {
		return fmt.Errorf("failed to parse key response: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(certs))
	for kid, certPEM := range certs {
		key, err := parseCertPublicKey(certPEM)
		if err != nil {
			return fmt.Errorf("failed to parse certificate for kid %s: %w", kid, err)
		}
		keys[kid] = key
	}

	if len(keys) == 0 {
		return errors.New("empty key set in response")
	}

	v.mu.Lock()
	v.keys = keys
	v.keysExpiry = time.Now().Add(cacheTTL(resp.Header.Get("Cache-Control")))
	v.mu.Unlock()

	return nil
}

// parseCertPublicKey はPEMエンコードされたx509証明書からRSA公開鍵を取り出す。
func parseCertPublicKey(certPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(certPEM))
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("invalid certificate: %w", err)
	}

	key, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("certificate does not contain an RSA public key")
	}

	return key, nil
}

// cacheTTL はCache-Controlヘッダーのmax-ageからキャッシュ期間を決定する。
func cacheTTL(cacheControl string) time.Duration {
	for _, directive := range strings.Split(cacheControl, ",") {
		directive = strings.TrimSpace(directive)
		if maxAge, ok := strings.CutPrefix(directive, "max-age="); ok {
			if seconds, err := strconv.Atoi(maxAge); err == nil && seconds > 0 {
				return time.Duration(seconds) * time.Second
			}
		}
	}
	return defaultKeyTTL
}
