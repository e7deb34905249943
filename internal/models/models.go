package models

// All 返回需要迁移的全部模型
func All() []interface{} {
	return []interface{}{
		&Optician{},
		&User{},
		&Campaign{},
		&CampaignOptician{},
		&Card{},
		&Requirement{},
		&Condition{},
		&SpecialEvent{},
		&SellerProgress{},
		&RequirementProgress{},
		&SaleLine{},
		&CardCompletion{},
		&LedgerEntry{},
		&Prize{},
		&Redemption{},
	}
}
