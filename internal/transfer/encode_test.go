package transfer

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/patronus-pay/patronus/internal/models"
)

const (
	testRecipient = "0x7c3A0F4C8a0176C7a9b4EdcF6aBAA04b0E9C9A11"
	testToken     = "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238"
)

func nativeAsset() *models.Asset {
	return &models.Asset{Symbol: "ETH", Name: "Ether", Decimals: 18, Native: true}
}

func tokenAsset() *models.Asset {
	return &models.Asset{Symbol: "USDX", Name: "USD Example", Address: testToken, Decimals: 18}
}

func TestEncodeNativeTransfer(t *testing.T) {
	intent := models.TransferIntent{Recipient: testRecipient, Amount: "1.0", Asset: "ETH"}

	call, err := EncodeIntent(intent, nativeAsset())
	if err != nil {
		t.Fatalf("EncodeIntent failed: %v", err)
	}

	if call.Target != common.HexToAddress(testRecipient) {
		t.Errorf("target = %s, want recipient %s", call.Target.Hex(), testRecipient)
	}
	want, _ := new(big.Int).SetString("1000000000000000000", 10)
	if call.Value.Cmp(want) != 0 {
		t.Errorf("value = %s, want %s", call.Value, want)
	}
	if len(call.Data) != 0 {
		t.Errorf("calldata = %x, want empty", call.Data)
	}
}

func TestEncodeTokenTransfer(t *testing.T) {
	intent := models.TransferIntent{Recipient: testRecipient, Amount: "10.5", Asset: "USDX"}

	call, err := EncodeIntent(intent, tokenAsset())
	if err != nil {
		t.Fatalf("EncodeIntent failed: %v", err)
	}

	if call.Target != common.HexToAddress(testToken) {
		t.Errorf("target = %s, want token contract %s", call.Target.Hex(), testToken)
	}
	if call.Value.Sign() != 0 {
		t.Errorf("value = %s, want 0 for token transfer", call.Value)
	}

	// transfer(address,uint256) selector followed by two padded words
	amount, _ := new(big.Int).SetString("10500000000000000000", 10)
	var want []byte
	want = append(want, 0xa9, 0x05, 0x9c, 0xbb)
	want = append(want, common.LeftPadBytes(common.HexToAddress(testRecipient).Bytes(), 32)...)
	want = append(want, common.LeftPadBytes(amount.Bytes(), 32)...)

	if !bytes.Equal(call.Data, want) {
		t.Errorf("calldata = %x, want %x", call.Data, want)
	}
}

func TestEncodeTokenTransferHonorsDecimals(t *testing.T) {
	asset := tokenAsset()
	asset.Decimals = 6
	intent := models.TransferIntent{Recipient: testRecipient, Amount: "2.5", Asset: "USDX"}

	call, err := EncodeIntent(intent, asset)
	if err != nil {
		t.Fatalf("EncodeIntent failed: %v", err)
	}

	want := big.NewInt(2500000)
	got := new(big.Int).SetBytes(call.Data[36:68])
	if got.Cmp(want) != 0 {
		t.Errorf("encoded amount = %s, want %s", got, want)
	}
}

func TestEncodeRejectsExcessPrecision(t *testing.T) {
	asset := tokenAsset()
	asset.Decimals = 6
	intent := models.TransferIntent{Recipient: testRecipient, Amount: "1.0000001", Asset: "USDX"}

	if _, err := EncodeIntent(intent, asset); err == nil {
		t.Error("expected error for amount below the asset's smallest unit")
	}
}
