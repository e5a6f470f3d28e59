package adb

import "strings"

// appPackages maps human-readable app names to their Android package names.
// The model addresses apps by name, so lookups are case-insensitive on the
// ASCII names.
var appPackages = map[string]string{
	"wechat":        "com.tencent.mm",
	"微信":            "com.tencent.mm",
	"alipay":        "com.eg.android.AlipayGphone",
	"支付宝":           "com.eg.android.AlipayGphone",
	"taobao":        "com.taobao.taobao",
	"淘宝":            "com.taobao.taobao",
	"jd":            "com.jingdong.app.mall",
	"京东":            "com.jingdong.app.mall",
	"pinduoduo":     "com.xunmeng.pinduoduo",
	"拼多多":           "com.xunmeng.pinduoduo",
	"meituan":       "com.sankuai.meituan",
	"美团":            "com.sankuai.meituan",
	"eleme":         "me.ele",
	"饿了么":           "me.ele",
	"dianping":      "com.dianping.v1",
	"大众点评":          "com.dianping.v1",
	"douyin":        "com.ss.android.ugc.aweme",
	"抖音":            "com.ss.android.ugc.aweme",
	"kuaishou":      "com.smile.gifmaker",
	"快手":            "com.smile.gifmaker",
	"bilibili":      "tv.danmaku.bili",
	"哔哩哔哩":          "tv.danmaku.bili",
	"xiaohongshu":   "com.xingin.xhs",
	"小红书":           "com.xingin.xhs",
	"weibo":         "com.sina.weibo",
	"微博":            "com.sina.weibo",
	"zhihu":         "com.zhihu.android",
	"知乎":            "com.zhihu.android",
	"qq":            "com.tencent.mobileqq",
	"qq music":      "com.tencent.qqmusic",
	"qq音乐":          "com.tencent.qqmusic",
	"netease music": "com.netease.cloudmusic",
	"网易云音乐":         "com.netease.cloudmusic",
	"amap":          "com.autonavi.minimap",
	"高德地图":          "com.autonavi.minimap",
	"baidu map":     "com.baidu.BaiduMap",
	"百度地图":          "com.baidu.BaiduMap",
	"didi":          "com.sdu.didi.psnger",
	"滴滴出行":          "com.sdu.didi.psnger",
	"ctrip":         "ctrip.android.view",
	"携程":            "ctrip.android.view",
	"12306":         "com.MobileTicket",
	"铁路12306":       "com.MobileTicket",
	"chrome":        "com.android.chrome",
	"settings":      "com.android.settings",
	"设置":            "com.android.settings",
	"camera":        "com.android.camera",
	"相机":            "com.android.camera",
	"gmail":         "com.google.android.gm",
	"youtube":       "com.google.android.youtube",
	"maps":          "com.google.android.apps.maps",
	"play store":    "com.android.vending",
	"calendar":      "com.google.android.calendar",
	"日历":            "com.google.android.calendar",
	"clock":         "com.android.deskclock",
	"时钟":            "com.android.deskclock",
	"calculator":    "com.android.calculator2",
	"计算器":           "com.android.calculator2",
	"files":         "com.android.documentsui",
	"contacts":      "com.android.contacts",
	"联系人":           "com.android.contacts",
	"messages":      "com.android.mms",
	"短信":            "com.android.mms",
	"phone":         "com.android.dialer",
	"电话":            "com.android.dialer",
	"gallery":       "com.android.gallery3d",
	"相册":            "com.android.gallery3d",
}

// packageNames is the reverse index used for foreground-app detection,
// built once at init. Ambiguous packages keep the first name inserted
// during the deterministic pass below.
var packageNames = func() map[string]string {
	rev := make(map[string]string, len(appPackages))
	for name, pkg := range appPackages {
		prev, ok := rev[pkg]
		// Prefer the ASCII name for log readability.
		if !ok || (!isASCII(prev) && isASCII(name)) {
			rev[pkg] = name
		}
	}
	return rev
}()

func isASCII(s string) bool {
	for _, r := range s {
		if r > 127 {
			return false
		}
	}
	return true
}

// PackageFor resolves a human-readable app name to an Android package name.
func PackageFor(name string) (string, bool) {
	if pkg, ok := appPackages[name]; ok {
		return pkg, true
	}
	pkg, ok := appPackages[strings.ToLower(strings.TrimSpace(name))]
	return pkg, ok
}

// foregroundApp scans dumpsys window output for the focused window and maps
// its package to a known app name. Unknown or missing focus reads as the
// launcher.
func foregroundApp(dump string) string {
	for _, line := range strings.Split(dump, "\n") {
		if !strings.Contains(line, "mCurrentFocus") && !strings.Contains(line, "mFocusedApp") {
			continue
		}
		for pkg, name := range packageNames {
			if strings.Contains(line, pkg) {
				return name
			}
		}
	}
	return "System Home"
}
