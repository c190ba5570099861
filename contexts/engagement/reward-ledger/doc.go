// Package rewardledger manages the redeemable reward catalog and
// enforces the balance-check-then-debit protocol on redemption.
package rewardledger
