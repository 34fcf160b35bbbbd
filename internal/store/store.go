package store

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrInsufficientCredits = errors.New("insufficient credits")

const initialCredits = 100

type CreditStore struct {
	db *gorm.DB
}

func NewCreditStore(db *gorm.DB) *CreditStore {
	return &CreditStore{db: db}
}

// GetOrCreateAccount looks up the account for a device, creating it with
// the starter credit balance on first contact.
func (cs *CreditStore) GetOrCreateAccount(deviceID string) (Account, error) {
	var account Account
	err := cs.db.Where("device_id = ?", deviceID).First(&account).Error
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Account{}, err
	}

	account = Account{
		DeviceID:  deviceID,
		Credits:   initialCredits,
		CreatedAt: time.Now().Unix(),
	}
	if err := cs.db.Create(&account).Error; err != nil {
		return Account{}, err
	}
	return account, nil
}

func (cs *CreditStore) Balance(accountID uint) (int64, error) {
	var account Account
	if err := cs.db.First(&account, accountID).Error; err != nil {
		return 0, err
	}
	return account.Credits, nil
}

// Debit atomically deducts amount from the account and returns the new
// balance. Fails with ErrInsufficientCredits without changing the balance
// when the account cannot cover the amount.
func (cs *CreditStore) Debit(accountID uint, amount int64) (int64, error) {
	var remaining int64
	err := cs.db.Transaction(func(tx *gorm.DB) error {
		var account Account
		if err := tx.First(&account, accountID).Error; err != nil {
			return err
		}
		if account.Credits < amount {
			return ErrInsufficientCredits
		}
		account.Credits -= amount
		remaining = account.Credits
		return tx.Model(&Account{}).Where("id = ?", accountID).
			Update("credits", account.Credits).Error
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

func (cs *CreditStore) Grant(accountID uint, amount int64) (int64, error) {
	var remaining int64
	err := cs.db.Transaction(func(tx *gorm.DB) error {
		var account Account
		if err := tx.First(&account, accountID).Error; err != nil {
			return err
		}
		account.Credits += amount
		remaining = account.Credits
		return tx.Model(&Account{}).Where("id = ?", accountID).
			Update("credits", account.Credits).Error
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

type HistoryStore struct {
	db *gorm.DB
}

func NewHistoryStore(db *gorm.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

func (hs *HistoryStore) Record(accountID uint, requestID, sourceLang, targetLang, sourceText, translatedText string) error {
	entry := Translation{
		AccountID:      accountID,
		RequestID:      requestID,
		SourceLang:     sourceLang,
		TargetLang:     targetLang,
		SourceText:     sourceText,
		TranslatedText: translatedText,
		CreatedAt:      time.Now().Unix(),
	}
	return hs.db.Create(&entry).Error
}

// Recent returns up to limit history entries, newest first.
func (hs *HistoryStore) Recent(accountID uint, limit int) ([]Translation, error) {
	var entries []Translation
	err := hs.db.Where("account_id = ?", accountID).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

type LanguageStore struct {
	db *gorm.DB
}

func NewLanguageStore(db *gorm.DB) *LanguageStore {
	return &LanguageStore{db: db}
}

func (ls *LanguageStore) Save(accountID uint, sourceLang, targetLang string) error {
	pair := LanguagePair{
		AccountID:  accountID,
		SourceLang: sourceLang,
		TargetLang: targetLang,
		UpdatedAt:  time.Now().Unix(),
	}
	return ls.db.Where("account_id = ?", accountID).
		Assign(map[string]interface{}{
			"source_lang": sourceLang,
			"target_lang": targetLang,
			"updated_at":  pair.UpdatedAt,
		}).
		FirstOrCreate(&pair).Error
}

func (ls *LanguageStore) Get(accountID uint) (LanguagePair, error) {
	var pair LanguagePair
	err := ls.db.Where("account_id = ?", accountID).First(&pair).Error
	return pair, err
}
