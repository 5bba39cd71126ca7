// Package password はArgon2idによるパスワードのハッシュ化と検証を提供します。
//
// ハッシュはPHC形式の文字列（$argon2id$v=19$m=...,t=...,p=...$salt$key）として
// 保存され、アルゴリズム・パラメータ・ソルト・導出鍵をすべて自己記述します。
// 保存済みハッシュの生成経路はこのパッケージのみです。
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrMalformedHash は保存済みハッシュ文字列が解析できないことを表します。
// 「パスワード不一致」（falseを返す）とは区別して扱ってください。
var ErrMalformedHash = errors.New("malformed password hash")

const algorithmID = "argon2id"

// コストパラメータ（固定）。OWASPの推奨値以上に設定しています。
const (
	memoryKB    uint32 = 64 * 1024
	timeCost    uint32 = 3
	parallelism uint8  = 2
	saltLength         = 16
	keyLength   uint32 = 32
)

// Hash はパスワードをArgon2idでハッシュ化し、PHC形式の文字列を返します。
// 呼び出しごとに新しいソルトを生成するため、同じパスワードでも結果は毎回異なります。
// エラーは乱数生成の失敗時のみ返します（入力内容では失敗しません）。
func Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, timeCost, memoryKB, parallelism, keyLength)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		memoryKB,
		timeCost,
		parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify はパスワードを保存済みハッシュに埋め込まれたパラメータで再導出し、
// 一定時間比較で照合します。ハッシュ文字列が壊れている場合は ErrMalformedHash を
// 返します。パスワードが一致しない場合はエラーではなく false を返します。
func Verify(password, encodedHash string) (bool, error) {
	parsed, err := parse(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(password),
		parsed.salt,
		parsed.time,
		parsed.memory,
		parsed.parallelism,
		uint32(len(parsed.key)),
	)

	return subtle.ConstantTimeCompare(computed, parsed.key) == 1, nil
}

type parsedHash struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func parse(encodedHash string) (*parsedHash, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, ErrMalformedHash
	}
	if parts[1] != algorithmID {
		return nil, ErrMalformedHash
	}

	version, ok := strings.CutPrefix(parts[2], "v=")
	if !ok {
		return nil, ErrMalformedHash
	}
	if v, err := strconv.Atoi(version); err != nil || v != argon2.Version {
		return nil, ErrMalformedHash
	}

	parsed := &parsedHash{}
	if err := parseParams(parts[3], parsed); err != nil {
		return nil, err
	}

	var err error
	parsed.salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(parsed.salt) == 0 {
		return nil, ErrMalformedHash
	}
	parsed.key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(parsed.key) == 0 {
		return nil, ErrMalformedHash
	}

	return parsed, nil
}

func parseParams(part string, parsed *parsedHash) error {
	pairs := strings.Split(part, ",")
	if len(pairs) != 3 {
		return ErrMalformedHash
	}

	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return ErrMalformedHash
		}
		switch k {
		case "m":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n == 0 {
				return ErrMalformedHash
			}
			parsed.memory = uint32(n)
		case "t":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n == 0 {
				return ErrMalformedHash
			}
			parsed.time = uint32(n)
		case "p":
			n, err := strconv.ParseUint(v, 10, 8)
			if err != nil || n == 0 {
				return ErrMalformedHash
			}
			parsed.parallelism = uint8(n)
		default:
			return ErrMalformedHash
		}
	}

	if parsed.memory == 0 || parsed.time == 0 || parsed.parallelism == 0 {
		return ErrMalformedHash
	}
	return nil
}
