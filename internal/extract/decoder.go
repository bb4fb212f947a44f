// Package extract はメール本文のデコードと記事候補の抽出を提供する。
package extract

import (
	"encoding/base64"
	"strings"

	"github.com/hitoshi/maildigest/internal/model"
)

// noSubjectPlaceholder はSubjectヘッダが欠けている場合のプレースホルダ。
const noSubjectPlaceholder = "no subject"

// DecodeEmail はRawMessageのMIMEパートツリーを再帰的に走査し、
// デコード済みのHTML本文・テキスト本文・件名を返す。
// 同じ種別のパートが複数ある場合は最後に見つかったものが勝つ。
// トップレベルのペイロードにパートがない場合は、宣言された
// メディアタイプに応じてペイロード自身の本文を使用する。
// デコード失敗は例外にせず、該当本文を空文字列とする。
func DecodeEmail(msg model.RawMessage) model.DecodedEmail {
	var htmlData, textData string

	var walk func(parts []model.MessagePart)
	walk = func(parts []model.MessagePart) {
		for _, p := range parts {
			mime := strings.ToLower(p.MimeType)
			if mime == "text/html" && p.BodyData != "" {
				htmlData = p.BodyData
			}
			if mime == "text/plain" && p.BodyData != "" {
				textData = p.BodyData
			}
			if len(p.Parts) > 0 {
				walk(p.Parts)
			}
		}
	}

	if len(msg.Payload.Parts) > 0 {
		walk(msg.Payload.Parts)
	} else {
		if strings.ToLower(msg.Payload.MimeType) == "text/html" {
			htmlData = msg.Payload.BodyData
		} else {
			textData = msg.Payload.BodyData
		}
	}

	subject := headerValue(msg.Headers, "Subject")
	if subject == "" {
		subject = noSubjectPlaceholder
	}

	return model.DecodedEmail{
		Subject:  subject,
		HTMLBody: decodeBase64URL(htmlData),
		TextBody: decodeBase64URL(textData),
	}
}

// headerValue はヘッダ名の大文字小文字を無視して値を引く。
func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// decodeBase64URL はbase64url符号化された本文をUTF-8テキストにデコードする。
// URL-safe文字を標準文字に置換し、長さを4の倍数までパディングしてからデコードする。
// 失敗した場合は標準base64としての解釈を試み、それでも失敗したら空文字列を返す。
func decodeBase64URL(data string) string {
	if data == "" {
		return ""
	}

	normalized := strings.ReplaceAll(data, "-", "+")
	normalized = strings.ReplaceAll(normalized, "_", "/")
	if rem := len(normalized) % 4; rem != 0 {
		normalized += strings.Repeat("=", 4-rem)
	}

	if decoded, err := base64.StdEncoding.DecodeString(normalized); err == nil {
		return string(decoded)
	}

	if decoded, err := base64.StdEncoding.DecodeString(data); err == nil {
		return string(decoded)
	}

	return ""
}
