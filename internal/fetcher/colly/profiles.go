package collyfetcher

import "github.com/ymkfssy/shuangse-sub001/internal/lottery"

// DefaultProfiles returns the built-in desktop and mobile browser profiles.
func DefaultProfiles() []lottery.HeaderProfile {
	return []lottery.HeaderProfile{
		{
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
			Referer:        "https://www.baidu.com/",
			AcceptLanguage: "zh-CN,zh;q=0.9,en;q=0.8",
		},
		{
			UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
			Referer:        "https://www.bing.com/",
			AcceptLanguage: "zh-CN,zh-Hans;q=0.9",
		},
		{
			UserAgent:      "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0",
			Referer:        "https://www.sogou.com/",
			AcceptLanguage: "zh-CN,zh;q=0.8,zh-TW;q=0.7,en-US;q=0.5",
		},
		{
			UserAgent:      "Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1",
			Referer:        "https://m.baidu.com/",
			AcceptLanguage: "zh-CN,zh-Hans;q=0.9",
		},
	}
}
