package service

import "github.com/wb-go/wbf/config"

// KeyPrefixes - префиксы ключей объектов в хранилище
type KeyPrefixes struct {
	Source  string
	Logo    string
	Result  string
	Preview string
}

// PrefixesFrom читает SRC_KEY, LOGO_KEY, RESULT_KEY и PREVIEW_KEY; api и воркер должны видеть одни и те же
func PrefixesFrom(cfg *config.Config) KeyPrefixes {
	return KeyPrefixes{
		Source:  orDefault(cfg.GetString("SRC_KEY"), "source/"),
		Logo:    orDefault(cfg.GetString("LOGO_KEY"), "logo/"),
		Result:  orDefault(cfg.GetString("RESULT_KEY"), "result/"),
		Preview: orDefault(cfg.GetString("PREVIEW_KEY"), "preview/"),
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
