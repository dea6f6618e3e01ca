package answer

import "strings"

const allergyNotice = "⚠️ アレルギーをお持ちの方は、予約時や来店時に必ずスタッフにお申し出ください。"

// Phrase pools. Placeholders in braces are substituted by render; every
// template in a pool carries the same placeholders.
var (
	menuPhrases = []string{
		"本日の定食は「{food}」です。\n\n営業状況は{status}です。",
		"今日の定食は「{food}」となっています。\n\n営業状況は{status}です。",
		"本日の定食メニューは「{food}」です。\n\n営業状況は{status}です。",
	}

	closedPhrases = []string{
		"本日は🚫 休業となっております。\n\n理由: {reason}",
		"申し訳ございませんが、本日は🚫 休業です。\n\n理由: {reason}",
		"本日は🚫 休業となっています。\n\n理由: {reason}",
	}

	openPhrases = []string{
		"本日は✅ 営業予定です。",
		"本日は✅ 営業しています。",
		"本日は✅ 営業予定となっています。",
	}

	slotPhrases = []string{
		"予約可能時間は以下の通りです：\n\n{slots}{note}",
		"予約は以下の時間帯で受け付けています：\n\n{slots}{note}",
		"予約可能時間：\n\n{slots}{note}",
	}

	noLimitPhrases = []string{
		"予約時間の制限は現在ありません。いつでも予約可能です。",
		"予約はいつでも可能です。時間制限はありません。",
		"予約時間の制限はありません。いつでも予約できます。",
	}

	countPhrases = []string{
		"現在の予約人数は{count}人です。\n\n混雑予測: {congestion}",
		"予約人数は{count}人となっています。\n\n混雑予測: {congestion}",
		"現在{count}人の予約があります。\n\n混雑予測: {congestion}",
	}

	noAllergyDataPhrases = []string{
		"申し訳ございませんが、現在アレルギー情報が登録されていません。\n\n詳しくはスタッフにお問い合わせください。",
		"アレルギー情報は現在登録されていません。\n\n詳細については、スタッフまでお気軽にお問い合わせください。",
	}

	menuAllergyPhrases = []string{
		"{menu}には以下のアレルギー物質が含まれています：\n\n{allergens}\n\n" + allergyNotice,
		"{menu}のアレルギー物質は以下の通りです：\n\n{allergens}\n\n⚠️ アレルギーをお持ちの方は、必ずスタッフにご相談ください。",
	}

	allergenMenusPhrases = []string{
		"{allergen}を含むメニューは以下の通りです：\n\n{menus}\n\n" + allergyNotice,
		"{allergen}が含まれているメニューは：\n\n{menus}\n\n⚠️ アレルギーをお持ちの方は、必ずスタッフにご相談ください。",
	}

	allergenAbsentPhrases = []string{
		"{allergen}を含むメニューは現在ありません。\n\nただし、調理環境により混入の可能性がありますので、アレルギーをお持ちの方は必ずスタッフにご相談ください。",
		"現在のメニューには{allergen}は含まれていません。\n\nただし、アレルギーをお持ちの方は、念のためスタッフにお問い合わせください。",
	}

	allergyTablePhrases = []string{
		"{table}",
		"以下が各メニューのアレルギー情報です：\n\n{table}",
	}
)

// CommonAllergens are recognised by name in allergy questions.
var CommonAllergens = []string{"小麦", "大豆", "乳", "卵", "そば", "エビ", "カニ", "落花生"}

// listSeparator joins allergen and menu lists.
const listSeparator = "、"

// render substitutes {key} placeholders. kv alternates key and value.
func render(tpl string, kv ...string) string {
	pairs := make([]string, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		pairs = append(pairs, "{"+kv[i]+"}", kv[i+1])
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}
